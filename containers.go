// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// containers.go - slice, map and optional encodings, plus codec-backed
// values for types that have no hand-written Encoder/Decoder.

package stratadump

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/AndrewDonelson/stratadump/internal/codec"
)

// Codec marshals arbitrary values into an opaque blob.
type Codec = codec.Codec

// WriteSlice writes the element count followed by every element.
func WriteSlice[T any](w Writer, s []T) error {
	if err := WriteInt(w, len(s)); err != nil {
		return err
	}
	for i := range s {
		if err := Write(w, s[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadSlice reads a slice written by WriteSlice.
func ReadSlice[T any](r Reader) ([]T, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		v, err := Read[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteMap writes the entry count followed by key/value pairs in ascending
// key order, so equal maps produce equal bytes.
func WriteMap[K cmp.Ordered, V any](w Writer, m map[K]V) error {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if err := WriteInt(w, len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := Write(w, k); err != nil {
			return err
		}
		if err := Write(w, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// ReadMap reads a map written by WriteMap. Duplicate keys are ErrMalformed.
func ReadMap[K cmp.Ordered, V any](r Reader) (map[K]V, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, min(n, 1024))
	for i := 0; i < n; i++ {
		k, err := Read[K](r)
		if err != nil {
			return nil, err
		}
		v, err := Read[V](r)
		if err != nil {
			return nil, err
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("%w: duplicate map key %v", ErrMalformed, k)
		}
		out[k] = v
	}
	return out, nil
}

// WriteOptional writes a presence flag and, when p is non-nil, *p.
func WriteOptional[T any](w Writer, p *T) error {
	if err := WriteBool(w, p != nil); err != nil || p == nil {
		return err
	}
	return Write(w, *p)
}

// ReadOptional reads a value written by WriteOptional. An absent value is
// returned as nil.
func ReadOptional[T any](r Reader) (*T, error) {
	set, err := ReadBool(r)
	if err != nil || !set {
		return nil, err
	}
	v, err := Read[T](r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func readCount(r Reader) (int, error) {
	n, err := ReadInt[int](r)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrMalformed, n)
	}
	return n, nil
}

// WriteWith marshals v with c and writes the result as a length-prefixed
// blob.
func WriteWith(w Writer, c Codec, v any) error {
	b, err := c.Marshal(v)
	if err != nil {
		return fmt.Errorf("stratadump: %s marshal: %w", c.Name(), err)
	}
	return WriteBytes(w, b)
}

// ReadWith reads a blob written by WriteWith and unmarshals it into v, which
// must be a pointer.
func ReadWith(r Reader, c Codec, v any) error {
	b, err := ReadBytes(r)
	if err != nil {
		return err
	}
	if err := c.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s unmarshal: %v", ErrMalformed, c.Name(), err)
	}
	return nil
}

// MsgPackValue makes any MessagePack-serializable value dumpable without a
// hand-written Encoder/Decoder.
type MsgPackValue[T any] struct {
	V T
}

// EncodeDump implements Encoder.
func (m MsgPackValue[T]) EncodeDump(w Writer) error {
	return WriteWith(w, codec.MsgPack{}, m.V)
}

// DecodeDump implements Decoder.
func (m *MsgPackValue[T]) DecodeDump(r Reader) error {
	return ReadWith(r, codec.MsgPack{}, &m.V)
}

// JSONValue stores a value as a JSON blob, which stays readable when a dump
// is inspected by hand.
type JSONValue[T any] struct {
	V T
}

// EncodeDump implements Encoder.
func (j JSONValue[T]) EncodeDump(w Writer) error {
	return WriteWith(w, codec.JSON{}, j.V)
}

// DecodeDump implements Decoder.
func (j *JSONValue[T]) DecodeDump(r Reader) error {
	return ReadWith(r, codec.JSON{}, &j.V)
}
