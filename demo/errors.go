package demo

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a recording session. Every kind is fatal to the
// session it occurs in.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectoryCreation
	KindFileCreation
	KindWrite
	KindSeek
	KindInvalidSequencing
	KindCapacityExceeded
	KindCorrupt
	KindInvalidConfig
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindDirectoryCreation: "directory creation failure",
	KindFileCreation:      "file creation failure",
	KindWrite:             "write failure",
	KindSeek:              "seek failure",
	KindInvalidSequencing: "invalid sequencing",
	KindCapacityExceeded:  "capacity exceeded",
	KindCorrupt:           "corrupt demonstration",
	KindInvalidConfig:     "invalid configuration",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrDirectoryCreation = &Error{Kind: KindDirectoryCreation}
	ErrFileCreation      = &Error{Kind: KindFileCreation}
	ErrWrite             = &Error{Kind: KindWrite}
	ErrSeek              = &Error{Kind: KindSeek}
	ErrInvalidSequencing = &Error{Kind: KindInvalidSequencing}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrCorrupt           = &Error{Kind: KindCorrupt}
	ErrInvalidConfig     = &Error{Kind: KindInvalidConfig}
)

// Error describes a failed demo operation.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "initialize", "record", "close"
	Path string // file or directory involved, if any
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := "demo"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	msg += ": " + e.Kind.String()
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. Sentinels carry no
// Op, so matching is by kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a demo error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
