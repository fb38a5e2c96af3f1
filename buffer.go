// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// buffer.go - bounded read buffer shared by the file-backed readers. Bytes
// are pulled from a source in chunks on demand and handed out as views
// into the buffer.

package stratadump

import (
	"errors"
	"fmt"
	"io"
)

// DefaultMinPumpSize is the smallest chunk pulled from a dump file at once.
const DefaultMinPumpSize = 32 * 1024

// source produces the plaintext of a dump.
type source interface {
	// pull appends up to want bytes to dst. It may append nothing without
	// error; io.EOF means the stream is exhausted and, for authenticated
	// sources, verified.
	pull(dst []byte, want int) ([]byte, error)
	close() error
}

// pullReader implements Reader on top of a source.
type pullReader struct {
	path     string
	src      source
	raw      []byte
	nextSkip int // bytes at the head of raw already handed out
	minPump  int
	eof      bool
	finished bool
	closed   bool
	err      error
}

func newPullReader(path string, src source, minPump int) *pullReader {
	if minPump <= 0 {
		minPump = DefaultMinPumpSize
	}
	return &pullReader{path: path, src: src, minPump: minPump}
}

func (r *pullReader) usable() error {
	switch {
	case r.err != nil:
		return r.err
	case r.finished:
		return ErrFinished
	case r.closed:
		return ErrClosed
	}
	return nil
}

// ReadRaw implements Reader.
func (r *pullReader) ReadRaw(size int) ([]byte, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative read size %d", ErrMalformed, size)
	}
	if len(r.raw)-r.nextSkip >= size {
		start := r.nextSkip
		r.nextSkip += size
		return r.raw[start:r.nextSkip:r.nextSkip], nil
	}

	// Drop what was already handed out, then pull until size bytes are
	// buffered or the stream ends. size may come from a corrupt length
	// prefix, so a single pull never exceeds maxPull and raw only grows by
	// what the source delivers.
	if r.nextSkip > 0 {
		n := copy(r.raw, r.raw[r.nextSkip:])
		r.raw = r.raw[:n]
		r.nextSkip = 0
	}
	maxPull := max(r.minPump, DefaultMinPumpSize)
	for len(r.raw) < size && !r.eof {
		if err := r.pull(min(max(size-len(r.raw), r.minPump), maxPull)); err != nil {
			return nil, err
		}
	}
	if len(r.raw) < size {
		r.err = fmt.Errorf("%w: reading dump file %q: requested-size=%d, unread-size=%d",
			ErrTruncated, r.path, size, size-len(r.raw))
		return nil, r.err
	}
	r.nextSkip = size
	return r.raw[:size:size], nil
}

func (r *pullReader) pull(want int) error {
	var err error
	r.raw, err = r.src.pull(r.raw, want)
	if errors.Is(err, io.EOF) {
		r.eof = true
		return nil
	}
	if err != nil {
		r.err = err
	}
	return err
}

// Finish implements Reader. It fails with ErrTrailingData when the dump
// holds more bytes than were read.
func (r *pullReader) Finish() error {
	if err := r.usable(); err != nil {
		return err
	}
	if len(r.raw) > r.nextSkip {
		r.err = fmt.Errorf("%w: dump file %q", ErrTrailingData, r.path)
		return r.err
	}
	r.raw = r.raw[:0]
	r.nextSkip = 0
	for !r.eof {
		if err := r.pull(1); err != nil {
			return err
		}
		if len(r.raw) > 0 {
			r.err = fmt.Errorf("%w: dump file %q", ErrTrailingData, r.path)
			return r.err
		}
	}
	r.finished = true
	return r.src.close()
}

// Close implements Reader.
func (r *pullReader) Close() error {
	if r.closed || r.finished {
		return nil
	}
	r.closed = true
	return r.src.close()
}
