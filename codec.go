// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// codec.go - the Writer/Reader contract every dump backend implements, the
// Encoder/Decoder customization point, and the generic Write/Read dispatch
// over the built-in encodings.

package stratadump

import (
	"fmt"
	"time"
)

// Writer is an append-only sink bound to exactly one not-yet-published dump.
// A Writer is not safe for concurrent use.
type Writer interface {
	// WriteRaw appends p with no length framing. The caller is responsible
	// for recovering the boundary on read.
	WriteRaw(p []byte) error
	// Finish finalizes the dump and publishes it. It must be called exactly
	// once, after the last write.
	Finish() error
	// Close releases the Writer's resources. Closing a Writer that has not
	// been finished abandons the dump; nothing is published.
	Close() error
}

// Reader is a sequential source over one published dump.
// A Reader is not safe for concurrent use.
type Reader interface {
	// ReadRaw returns exactly size bytes. The returned slice may alias an
	// internal buffer and is only valid until the next call on the Reader.
	ReadRaw(size int) ([]byte, error)
	// Finish checks that the dump has been consumed exactly.
	Finish() error
	// Close releases the Reader's resources.
	Close() error
}

// Encoder is implemented by types that know how to write themselves to a
// dump.
type Encoder interface {
	EncodeDump(w Writer) error
}

// Decoder is implemented by pointer types that can populate themselves from
// a dump written by the matching Encoder.
type Decoder interface {
	DecodeDump(r Reader) error
}

// Write serializes v to w. Built-in encodings cover bool, string, []byte,
// every integer kind, float32, float64, time.Time and time.Duration; any
// other type must implement Encoder.
func Write[T any](w Writer, v T) error {
	switch x := any(v).(type) {
	case Encoder:
		return x.EncodeDump(w)
	case bool:
		return WriteBool(w, x)
	case string:
		return WriteString(w, x)
	case []byte:
		return WriteBytes(w, x)
	case int:
		return WriteInt(w, x)
	case int8:
		return WriteInt(w, x)
	case int16:
		return WriteInt(w, x)
	case int32:
		return WriteInt(w, x)
	case int64:
		return WriteInt(w, x)
	case uint:
		return WriteInt(w, x)
	case uint8:
		return WriteInt(w, x)
	case uint16:
		return WriteInt(w, x)
	case uint32:
		return WriteInt(w, x)
	case uint64:
		return WriteInt(w, x)
	case uintptr:
		return WriteInt(w, x)
	case float32:
		return WriteFloat32(w, x)
	case float64:
		return WriteFloat64(w, x)
	case time.Duration:
		return WriteInt(w, int64(x))
	case time.Time:
		return WriteTime(w, x)
	}
	if e, ok := any(&v).(Encoder); ok {
		return e.EncodeDump(w)
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// Read deserializes a T from r, consuming exactly the bytes the matching
// Write produced.
func Read[T any](r Reader) (T, error) {
	var v T
	var err error
	switch p := any(&v).(type) {
	case Decoder:
		err = p.DecodeDump(r)
	case *bool:
		*p, err = ReadBool(r)
	case *string:
		*p, err = ReadString(r)
	case *[]byte:
		*p, err = ReadBytes(r)
	case *int:
		*p, err = ReadInt[int](r)
	case *int8:
		*p, err = ReadInt[int8](r)
	case *int16:
		*p, err = ReadInt[int16](r)
	case *int32:
		*p, err = ReadInt[int32](r)
	case *int64:
		*p, err = ReadInt[int64](r)
	case *uint:
		*p, err = ReadInt[uint](r)
	case *uint8:
		*p, err = ReadInt[uint8](r)
	case *uint16:
		*p, err = ReadInt[uint16](r)
	case *uint32:
		*p, err = ReadInt[uint32](r)
	case *uint64:
		*p, err = ReadInt[uint64](r)
	case *uintptr:
		*p, err = ReadInt[uintptr](r)
	case *float32:
		*p, err = ReadFloat32(r)
	case *float64:
		*p, err = ReadFloat64(r)
	case *time.Duration:
		*p, err = ReadInt[time.Duration](r)
	case *time.Time:
		*p, err = ReadTime(r)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	return v, err
}
