// Package demo provides a streaming writer and reader for demonstration (.demo)
// trace files used for imitation learning.
//
// A demonstration file has three regions:
//   - [0, 33): reserved metadata region. A length-delimited metadata message,
//     zero padded. It holds a placeholder while recording and is patched in
//     place with the final statistics on Close().
//   - [33, X): the session parameters (brain parameters), length-delimited.
//   - [X, EOF): one length-delimited step record per recorded step, in write order.
//
// Messages use the protobuf wire encoding and each one is prefixed with its
// length as a varint. Steps are written as they are recorded; the store does not
// retain them in memory.
package demo
