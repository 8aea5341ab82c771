// Package cursor holds the byte-level primitives every COLMAP record decoder
// is built from. Decoders never touch the stream directly: they either skip
// a known number of bytes with Advance or read a fixed count of little-endian
// values with Read, so a record always consumes exactly its own bytes.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedEOF is returned when the stream ends inside a record.
// It also matches io.ErrUnexpectedEOF under errors.Is.
var ErrUnexpectedEOF = &eofError{}

type eofError struct{}

func (*eofError) Error() string { return "unexpected end of stream" }

func (*eofError) Is(target error) bool { return target == io.ErrUnexpectedEOF }

// IOError wraps a failure of the underlying reader.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("read failed: %v", e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// MalformedError reports a field whose value cannot describe a valid record,
// such as a count that would overflow the stream offset.
type MalformedError struct {
	What string
}

func (e *MalformedError) Error() string { return "malformed record: " + e.What }

// Fixed is the set of fixed-width numeric types Read can decode.
type Fixed interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// Advance skips exactly n bytes.
func Advance(r io.Reader, n int64) error {
	if n < 0 {
		return &MalformedError{What: fmt.Sprintf("negative skip of %d bytes", n)}
	}
	if n == 0 {
		return nil
	}
	skipped, err := io.CopyN(io.Discard, r, n)
	if skipped == n {
		return nil
	}
	return classify(err)
}

// Read reads n little-endian values of type T.
func Read[T Fixed](r io.Reader, n int) ([]T, error) {
	values := make([]T, n)
	if n == 0 {
		return values, nil
	}
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return nil, classify(err)
	}
	return values, nil
}

// ReadOne reads a single little-endian value of type T.
func ReadOne[T Fixed](r io.Reader) (T, error) {
	var v T
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return v, classify(err)
	}
	return v, nil
}

// ReadCString reads a NUL-terminated string one byte at a time so the stream
// is left directly after the terminator. Strings longer than max bytes are
// rejected.
func ReadCString(r io.Reader, max int) (string, error) {
	buf := make([]byte, 0, 32)
	for {
		b, err := ReadOne[uint8](r)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		if len(buf) == max {
			return "", &MalformedError{What: fmt.Sprintf("string exceeds %d bytes", max)}
		}
		buf = append(buf, b)
	}
}

// SkipSize returns count*stride as a byte count, rejecting products that do
// not fit the stream offset type.
func SkipSize(count uint64, stride int64) (int64, error) {
	if stride <= 0 {
		return 0, &MalformedError{What: fmt.Sprintf("invalid stride %d", stride)}
	}
	if count > uint64(maxInt64/stride) {
		return 0, &MalformedError{What: fmt.Sprintf("count %d overflows stream offset", count)}
	}
	return int64(count) * stride, nil
}

const maxInt64 = int64(^uint64(0) >> 1)

func classify(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	return &IOError{Err: err}
}
