// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// primitives.go - encodings for bool, string, []byte, floating point and
// time values, built from WriteInt and WriteRaw.

package stratadump

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// WriteBool writes b as a single 0 or 1 byte.
func WriteBool(w Writer, b bool) error {
	if b {
		return w.WriteRaw([]byte{1})
	}
	return w.WriteRaw([]byte{0})
}

// ReadBool reads a bool. Any byte other than 0 or 1 is ErrMalformed.
func ReadBool(r Reader) (bool, error) {
	b, err := r.ReadRaw(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool byte %#x", ErrMalformed, b[0])
	}
}

// WriteString writes the length of s followed by its bytes.
func WriteString(w Writer, s string) error {
	if err := WriteInt(w, len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return w.WriteRaw([]byte(s))
}

// ReadString reads a string written by WriteString.
func ReadString(r Reader) (string, error) {
	b, err := readSized(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteBytes writes the length of p followed by p.
func WriteBytes(w Writer, p []byte) error {
	if err := WriteInt(w, len(p)); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return w.WriteRaw(p)
}

// ReadBytes reads a byte slice written by WriteBytes. The result is a copy
// and stays valid after further reads.
func ReadBytes(r Reader) ([]byte, error) {
	b, err := readSized(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// readSized returns a view of a length-prefixed blob.
func readSized(r Reader) ([]byte, error) {
	n, err := ReadInt[int](r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrMalformed, n)
	}
	if n == 0 {
		return nil, nil
	}
	return r.ReadRaw(n)
}

// WriteFloat64 writes the IEEE 754 bit pattern of f as 8 little-endian bytes.
func WriteFloat64(w Writer, f float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	return w.WriteRaw(buf[:])
}

// ReadFloat64 reads a float64 written by WriteFloat64.
func ReadFloat64(r Reader) (float64, error) {
	b, err := r.ReadRaw(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// WriteFloat32 writes the IEEE 754 bit pattern of f as 4 little-endian bytes.
func WriteFloat32(w Writer, f float32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
	return w.WriteRaw(buf[:])
}

// ReadFloat32 reads a float32 written by WriteFloat32.
func ReadFloat32(r Reader) (float32, error) {
	b, err := r.ReadRaw(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// WriteTime writes t as a presence flag followed by Unix seconds and
// nanoseconds. The zero time is written as the flag alone.
func WriteTime(w Writer, t time.Time) error {
	if t.IsZero() {
		return WriteBool(w, false)
	}
	if err := WriteBool(w, true); err != nil {
		return err
	}
	if err := WriteInt(w, t.Unix()); err != nil {
		return err
	}
	return WriteInt(w, t.Nanosecond())
}

// ReadTime reads a time written by WriteTime. Non-zero times come back in
// UTC.
func ReadTime(r Reader) (time.Time, error) {
	set, err := ReadBool(r)
	if err != nil || !set {
		return time.Time{}, err
	}
	sec, err := ReadInt[int64](r)
	if err != nil {
		return time.Time{}, err
	}
	nsec, err := ReadInt[int64](r)
	if err != nil {
		return time.Time{}, err
	}
	if nsec < 0 || nsec >= int64(time.Second) {
		return time.Time{}, fmt.Errorf("%w: nanoseconds %d out of range", ErrMalformed, nsec)
	}
	return time.Unix(sec, nsec).UTC(), nil
}
