// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// file.go - unencrypted dump backend. Same contract and publication rules
// as the encrypted backend, bytes are stored as written.

package stratadump

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// FileWriter writes a plain dump file.
type FileWriter struct {
	sink *fileSink
}

// NewFileWriter creates path+".tmp" with perm and starts a plain dump that
// Finish publishes at path.
func NewFileWriter(path string, perm os.FileMode, opts ...Option) (*FileWriter, error) {
	o := newOptions(opts)
	sink, err := newFileSink(path, perm, o.writeBufferSize, o.logger)
	if err != nil {
		return nil, err
	}
	return &FileWriter{sink: sink}, nil
}

// WriteRaw implements Writer.
func (w *FileWriter) WriteRaw(p []byte) error {
	if err := w.sink.usable(); err != nil {
		return err
	}
	return w.sink.write(p)
}

// Finish implements Writer.
func (w *FileWriter) Finish() error {
	if err := w.sink.usable(); err != nil {
		return err
	}
	return w.sink.publish()
}

// Close implements Writer.
func (w *FileWriter) Close() error {
	return w.sink.abandon()
}

// FileReader reads a plain dump file.
type FileReader struct {
	*pullReader
}

// NewFileReader opens the plain dump at path.
func NewFileReader(path string, opts ...Option) (*FileReader, error) {
	o := newOptions(opts)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stratadump: open %q: %w", path, err)
	}
	return &FileReader{pullReader: newPullReader(path, &plainSource{path: path, f: f}, o.minPumpSize)}, nil
}

type plainSource struct {
	path string
	f    *os.File
}

func (s *plainSource) pull(dst []byte, want int) ([]byte, error) {
	start := len(dst)
	dst = slices.Grow(dst, want)[:start+want]
	n, err := s.f.Read(dst[start:])
	dst = dst[:start+n]
	switch {
	case errors.Is(err, io.EOF):
		if n > 0 {
			return dst, nil
		}
		return dst, io.EOF
	case err != nil:
		return dst, fmt.Errorf("stratadump: read %q: %w", s.path, err)
	}
	return dst, nil
}

func (s *plainSource) close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
