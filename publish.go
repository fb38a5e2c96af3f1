// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// publish.go - temp-file sink shared by the file-backed writers: creates
// path+".tmp" with the requested permissions, buffers writes, and on finish
// syncs and atomically renames the temp file over the final path.

package stratadump

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// TempSuffix is appended to the final path while a dump is being written.
const TempSuffix = ".tmp"

type sinkState int

const (
	sinkWriting sinkState = iota
	sinkFinished
	sinkClosed
)

// fileSink owns the temp file of one dump being written.
type fileSink struct {
	path    string
	tmpPath string
	f       *os.File
	bw      *bufio.Writer
	written int64
	state   sinkState
	err     error // first failure; the sink is unusable afterwards
	logger  Logger
}

func newFileSink(path string, perm os.FileMode, bufSize int, logger Logger) (*fileSink, error) {
	tmpPath := path + TempSuffix
	// Create empty with the wanted mode, then chmod: OpenFile's mode is
	// filtered by the umask.
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, fmt.Errorf("stratadump: create %q: %w", tmpPath, err)
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("stratadump: chmod %q: %w", tmpPath, err)
	}
	logger.Debug("dump write started", "path", path)
	return &fileSink{
		path:    path,
		tmpPath: tmpPath,
		f:       f,
		bw:      bufio.NewWriterSize(f, bufSize),
		logger:  logger,
	}, nil
}

// usable returns the error that prevents further writes, if any.
func (s *fileSink) usable() error {
	switch {
	case s.err != nil:
		return s.err
	case s.state == sinkFinished:
		return ErrFinished
	case s.state == sinkClosed:
		return ErrClosed
	}
	return nil
}

func (s *fileSink) write(p []byte) error {
	if _, err := s.bw.Write(p); err != nil {
		s.err = fmt.Errorf("stratadump: write %q: %w", s.tmpPath, err)
		return s.err
	}
	s.written += int64(len(p))
	return nil
}

// publish flushes, syncs and closes the temp file, then renames it over the
// final path. The previous dump at path stays intact until the rename.
func (s *fileSink) publish() error {
	fail := func(op string, err error) error {
		s.err = fmt.Errorf("stratadump: %s %q: %w", op, s.tmpPath, err)
		return s.err
	}
	if err := s.bw.Flush(); err != nil {
		return fail("flush", err)
	}
	if err := s.f.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := s.f.Close(); err != nil {
		return fail("close", err)
	}
	s.f = nil
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		return fail("rename", err)
	}
	syncDir(filepath.Dir(s.path))
	s.state = sinkFinished
	s.logger.Debug("dump published", "path", s.path, "bytes", s.written)
	return nil
}

// abandon closes and removes the temp file of an unfinished dump.
func (s *fileSink) abandon() error {
	if s.state != sinkWriting {
		return nil
	}
	s.state = sinkClosed
	var err error
	if s.f != nil {
		err = s.f.Close()
		s.f = nil
	}
	if rmErr := os.Remove(s.tmpPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	s.logger.Debug("dump abandoned", "path", s.path)
	return err
}

// syncDir makes a rename durable on filesystems that need it. Best effort:
// not every platform can fsync a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
