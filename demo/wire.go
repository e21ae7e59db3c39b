package demo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	pk "github.com/Tnze/go-mc/net/packet"
	"google.golang.org/protobuf/encoding/protowire"
)

// maxMessageSize caps a single delimited message on read.
const maxMessageSize = 64 << 20

// appendDelimited frames body with its varint length and appends it to buf.
func appendDelimited(buf *bytes.Buffer, body []byte) error {
	if len(body) > math.MaxInt32 {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}
	if _, err := pk.VarInt(len(body)).WriteTo(buf); err != nil {
		return err
	}
	_, err := buf.Write(body)
	return err
}

// writeDelimited writes a length-delimited message to w in a single Write call.
func writeDelimited(w io.Writer, body []byte) (int, error) {
	var buf bytes.Buffer
	buf.Grow(len(body) + 5)
	if err := appendDelimited(&buf, body); err != nil {
		return 0, err
	}
	return w.Write(buf.Bytes())
}

// readDelimited reads one length-delimited message from r. It returns io.EOF
// only when r is exhausted exactly at a message boundary.
func readDelimited(r io.Reader) ([]byte, error) {
	var size pk.VarInt
	cr := &countingReader{r: r}
	if _, err := size.ReadFrom(cr); err != nil {
		if errors.Is(err, io.EOF) && cr.n == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if size < 0 || size > maxMessageSize {
		return nil, fmt.Errorf("invalid message length %d", size)
	}
	body := make([]byte, int(size))
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// Field helpers. Zero values are omitted, as proto3 does.

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	if v == 0 && !math.Signbit(float64(v)) {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendPackedInt32(b []byte, num protowire.Number, vs []int32) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(int64(v)))
	}
	return appendMessage(b, num, packed)
}

func appendPackedFloat(b []byte, num protowire.Number, vs []float32) []byte {
	if len(vs) == 0 {
		return b
	}
	packed := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	return appendMessage(b, num, packed)
}

func appendPackedBool(b []byte, num protowire.Number, vs []bool) []byte {
	if len(vs) == 0 {
		return b
	}
	packed := make([]byte, 0, len(vs))
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, protowire.EncodeBool(v))
	}
	return appendMessage(b, num, packed)
}

// fieldFunc handles one decoded field. It returns the number of bytes of b it
// consumed, or a negative protowire error code.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// walkFields iterates the fields of an encoded message, skipping any field that
// fn leaves unconsumed (returns 0).
func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := fn(num, typ, b)
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeInt32(typ protowire.Type, b []byte, dst *int32) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = int32(v)
	}
	return n
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = protowire.DecodeBool(v)
	}
	return n
}

func consumeFloat(typ protowire.Type, b []byte, dst *float32) int {
	if typ != protowire.Fixed32Type {
		return 0
	}
	v, n := protowire.ConsumeFixed32(b)
	if n >= 0 {
		*dst = math.Float32frombits(v)
	}
	return n
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeBytes(typ protowire.Type, b []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		*dst = append([]byte(nil), v...)
	}
	return n
}

// consumeRepeatedInt32 accepts both packed and unpacked encodings.
func consumeRepeatedInt32(typ protowire.Type, b []byte, dst *[]int32) int {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n >= 0 {
			*dst = append(*dst, int32(v))
		}
		return n
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return m
			}
			*dst = append(*dst, int32(v))
			packed = packed[m:]
		}
		return n
	}
	return 0
}

func consumeRepeatedFloat(typ protowire.Type, b []byte, dst *[]float32) int {
	switch typ {
	case protowire.Fixed32Type:
		v, n := protowire.ConsumeFixed32(b)
		if n >= 0 {
			*dst = append(*dst, math.Float32frombits(v))
		}
		return n
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed32(packed)
			if m < 0 {
				return m
			}
			*dst = append(*dst, math.Float32frombits(v))
			packed = packed[m:]
		}
		return n
	}
	return 0
}

func consumeRepeatedBool(typ protowire.Type, b []byte, dst *[]bool) int {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n >= 0 {
			*dst = append(*dst, protowire.DecodeBool(v))
		}
		return n
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return m
			}
			*dst = append(*dst, protowire.DecodeBool(v))
			packed = packed[m:]
		}
		return n
	}
	return 0
}

// consumeMessage hands the embedded message bytes to decode.
func consumeMessage(typ protowire.Type, b []byte, decode func([]byte) error) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n
	}
	if err := decode(v); err != nil {
		return errCodeDecode
	}
	return n
}

// errCodeDecode is reported through walkFields when an embedded message fails
// to decode. protowire.ParseError maps it to its generic parse error.
const errCodeDecode = -100
