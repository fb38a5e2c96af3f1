// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// encrypted.go - AES-256-GCM dump backend. File layout:
//
//	[16 bytes IV, cleartext][ciphertext][16 bytes authentication tag]
//
// The writer encrypts incrementally into a temp file that is renamed into
// place by Finish; the reader decrypts in chunks and verifies the tag when
// it reaches the end of the file.

package stratadump

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AndrewDonelson/stratadump/internal/aead"
)

// EncryptedWriter writes an encrypted dump. Created by
// EncryptedOperationsFactory.CreateWriter or NewEncryptedWriter.
type EncryptedWriter struct {
	sink    *fileSink
	sealer  *aead.Sealer
	scratch []byte
	chunk   int
}

// NewEncryptedWriter creates path+".tmp" with perm and starts an encrypted
// dump that Finish publishes at path.
func NewEncryptedWriter(path string, key SecretKey, perm os.FileMode, opts ...Option) (*EncryptedWriter, error) {
	o := newOptions(opts)
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	iv, err := generateIV()
	if err != nil {
		return nil, fmt.Errorf("stratadump: generate iv: %w", err)
	}
	sealer, err := aead.NewSealer(block, iv)
	if err != nil {
		return nil, err
	}
	sink, err := newFileSink(path, perm, o.writeBufferSize, o.logger)
	if err != nil {
		return nil, err
	}
	if err := sink.write(iv); err != nil {
		_ = sink.abandon()
		return nil, err
	}
	return &EncryptedWriter{
		sink:   sink,
		sealer: sealer,
		chunk:  o.writeBufferSize,
	}, nil
}

// WriteRaw implements Writer.
func (w *EncryptedWriter) WriteRaw(p []byte) error {
	if err := w.sink.usable(); err != nil {
		return err
	}
	for len(p) > 0 {
		n := min(len(p), w.chunk)
		w.scratch = w.sealer.Seal(w.scratch[:0], p[:n])
		if err := w.sink.write(w.scratch); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Finish appends the authentication tag and publishes the dump.
func (w *EncryptedWriter) Finish() error {
	if err := w.sink.usable(); err != nil {
		return err
	}
	if err := w.sink.write(w.sealer.Tag()); err != nil {
		return err
	}
	return w.sink.publish()
}

// Close abandons the dump unless Finish has succeeded.
func (w *EncryptedWriter) Close() error {
	return w.sink.abandon()
}

// Path returns the final path the dump is published at.
func (w *EncryptedWriter) Path() string { return w.sink.path }

// EncryptedReader reads an encrypted dump. Decrypted bytes are returned
// before the tag is checked; a load is only trustworthy once Finish has
// succeeded. With a wrong key or a tampered file, decoding the garbage
// plaintext may fail with ErrMalformed or ErrTrailingData before the tag
// is reached; any read that reaches the end of the file reports
// ErrIntegrity instead.
type EncryptedReader struct {
	*pullReader
}

// NewEncryptedReader opens the encrypted dump at path.
func NewEncryptedReader(path string, key SecretKey, opts ...Option) (*EncryptedReader, error) {
	o := newOptions(opts)
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stratadump: open %q: %w", path, err)
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(f, iv); err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: reading IV from encrypted dump file %q: requested-size=%d",
				ErrTruncated, path, IVSize)
		}
		return nil, fmt.Errorf("stratadump: read %q: %w", path, err)
	}
	opener, err := aead.NewOpener(block, iv)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src := &decryptSource{path: path, f: f, opener: opener}
	o.logger.Debug("dump read started", "path", path)
	return &EncryptedReader{pullReader: newPullReader(path, src, o.minPumpSize)}, nil
}

// decryptSource decrypts a file chunk by chunk. The last TagSize bytes seen
// are always held back in pending since any of them may be the tag.
type decryptSource struct {
	path    string
	f       *os.File
	opener  *aead.Opener
	chunk   []byte
	pending []byte
	done    bool
}

func (s *decryptSource) pull(dst []byte, want int) ([]byte, error) {
	if s.done {
		return dst, io.EOF
	}
	if cap(s.chunk) < want {
		s.chunk = make([]byte, want)
	}
	n, err := s.f.Read(s.chunk[:want])
	if n > 0 {
		s.pending = append(s.pending, s.chunk[:n]...)
		if k := len(s.pending) - aead.TagSize; k > 0 {
			dst = s.opener.Open(dst, s.pending[:k])
			s.pending = append(s.pending[:0], s.pending[k:]...)
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		return dst, s.finish()
	case err != nil:
		return dst, fmt.Errorf("stratadump: read %q: %w", s.path, err)
	}
	return dst, nil
}

// finish checks the tag once the file is exhausted.
func (s *decryptSource) finish() error {
	if len(s.pending) < aead.TagSize {
		return fmt.Errorf("%w: encrypted dump file %q ends before its authentication tag",
			ErrTruncated, s.path)
	}
	if err := s.opener.Verify(s.pending); err != nil {
		return fmt.Errorf("%w: encrypted dump file %q", ErrIntegrity, s.path)
	}
	s.done = true
	return io.EOF
}

func (s *decryptSource) close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
