// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// binary.go - in-memory Writer and Reader, and the ToBinary/FromBinary
// helpers built on them.

package stratadump

import "fmt"

// BinaryWriter accumulates a dump in memory.
type BinaryWriter struct {
	buf      []byte
	finished bool
}

// NewBinaryWriter returns an empty BinaryWriter.
func NewBinaryWriter() *BinaryWriter { return &BinaryWriter{} }

// WriteRaw implements Writer.
func (w *BinaryWriter) WriteRaw(p []byte) error {
	if w.finished {
		return ErrFinished
	}
	w.buf = append(w.buf, p...)
	return nil
}

// Finish implements Writer.
func (w *BinaryWriter) Finish() error {
	if w.finished {
		return ErrFinished
	}
	w.finished = true
	return nil
}

// Close implements Writer.
func (w *BinaryWriter) Close() error { return nil }

// Bytes returns the bytes written so far.
func (w *BinaryWriter) Bytes() []byte { return w.buf }

// BinaryReader reads a dump held in memory.
type BinaryReader struct {
	data     []byte
	finished bool
}

// NewBinaryReader returns a Reader over data. data must not be modified
// while the reader is in use.
func NewBinaryReader(data []byte) *BinaryReader { return &BinaryReader{data: data} }

// ReadRaw implements Reader.
func (r *BinaryReader) ReadRaw(size int) ([]byte, error) {
	if r.finished {
		return nil, ErrFinished
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative read size %d", ErrMalformed, size)
	}
	if len(r.data) < size {
		return nil, fmt.Errorf("%w: requested-size=%d, unread-size=%d", ErrTruncated, size, size-len(r.data))
	}
	v := r.data[:size:size]
	r.data = r.data[size:]
	return v, nil
}

// Finish implements Reader.
func (r *BinaryReader) Finish() error {
	if r.finished {
		return ErrFinished
	}
	if len(r.data) > 0 {
		return fmt.Errorf("%w: %d bytes left", ErrTrailingData, len(r.data))
	}
	r.finished = true
	return nil
}

// Close implements Reader.
func (r *BinaryReader) Close() error { return nil }

// ToBinary encodes v into a fresh byte slice.
func ToBinary[T any](v T) ([]byte, error) {
	w := NewBinaryWriter()
	if err := Write(w, v); err != nil {
		return nil, err
	}
	if err := w.Finish(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// FromBinary decodes a T from data, which must hold exactly one value.
func FromBinary[T any](data []byte) (T, error) {
	r := NewBinaryReader(data)
	v, err := Read[T](r)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := r.Finish(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
