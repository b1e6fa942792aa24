package flatdoc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrStaleCursor = errors.New("cursor used after a mutation that moved nodes")

	ErrUnmatchedEnd   = errors.New("container end without a matching begin")
	ErrMissingName    = errors.New("object member without a name")
	ErrUnexpectedName = errors.New("name outside of an object")
	ErrDanglingName   = errors.New("name not followed by a value")
	ErrDuplicateKey   = errors.New("duplicate object key")
	ErrTrailingData   = errors.New("more than one top-level value")
	ErrNoValue        = errors.New("no value")
	ErrNumberRange    = errors.New("number out of range")
	ErrUnclosed       = errors.New("unclosed container")
)

// SyntaxError reports the point at which ingestion stopped. Offset is a byte
// offset for text input and an event ordinal for event streams.
type SyntaxError struct {
	Offset int64
	Msg    string
	Err    error
}

func syntaxErrf(off int64, err error, format string, args ...any) error {
	return &SyntaxError{off, fmt.Sprintf(format, args...), err}
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func (e *SyntaxError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "at offset %d", e.Offset)
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

// LayoutError is returned by Tree.Check when the node array violates the
// breadth-first layout.
type LayoutError struct {
	Pos    int
	Parent int
	Msg    string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("node %d (parent %d): %s", e.Pos, e.Parent, e.Msg)
}

// KindError is the panic value of a Value accessor called on the wrong kind.
type KindError struct {
	Want Kind
	Got  Kind
	Msg  string
}

func (e *KindError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%v value: %s", e.Got, e.Msg)
	}
	return fmt.Sprintf("%v value used as %v", e.Got, e.Want)
}
