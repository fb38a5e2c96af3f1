// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// dumper.go - manages the dump directory of one cache: writes timestamped,
// versioned dumps through an OperationsFactory, loads the newest usable one
// and applies the retention policy.

// Package dumper writes and loads the periodic dumps of a cache.
package dumper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/clock"
	"github.com/AndrewDonelson/stratadump/internal/metrics"
)

var (
	// ErrNoDump is returned by Load and Latest when no usable dump exists.
	ErrNoDump = errors.New("dumper: no usable dump")
	// ErrInvalidOptions is returned by New for incomplete Options.
	ErrInvalidOptions = errors.New("dumper: invalid options")
)

// Options configures a Dumper.
type Options struct {
	// Dir is the parent directory; dumps live in Dir/CacheName.
	Dir       string
	CacheName string
	// FormatVersion is bumped whenever the encoding of the cache changes.
	// Dumps of other versions are never loaded.
	FormatVersion uint64
	Factory       stratadump.OperationsFactory

	// Retention
	MaxCount int           // dumps of the current version to keep; default 1
	MaxAge   time.Duration // 0 = unlimited

	Clock   clock.Clock
	Metrics metrics.Recorder
	Logger  stratadump.Logger
}

func (o *Options) defaults() {
	if o.MaxCount == 0 {
		o.MaxCount = 1
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Noop{}
	}
	if o.Logger == nil {
		o.Logger = stratadump.NopLogger()
	}
}

// Info describes one dump file.
type Info struct {
	Path          string
	UpdateTime    time.Time
	FormatVersion uint64
	Size          int64
}

// Dumper owns the dump directory of one cache. Dump, Load and Cleanup are
// serialized; a Dumper may be shared between goroutines.
type Dumper struct {
	opts Options
	dir  string
	mu   sync.Mutex
}

// New validates opts and returns a Dumper. The directory is created on the
// first Dump.
func New(opts Options) (*Dumper, error) {
	opts.defaults()
	switch {
	case opts.Dir == "":
		return nil, fmt.Errorf("%w: Dir is required", ErrInvalidOptions)
	case opts.CacheName == "" || opts.CacheName == "." || opts.CacheName == ".." ||
		opts.CacheName != filepath.Base(opts.CacheName):
		return nil, fmt.Errorf("%w: bad cache name %q", ErrInvalidOptions, opts.CacheName)
	case opts.Factory == nil:
		return nil, fmt.Errorf("%w: Factory is required", ErrInvalidOptions)
	case opts.MaxCount < 0 || opts.MaxAge < 0:
		return nil, fmt.Errorf("%w: retention limits must not be negative", ErrInvalidOptions)
	}
	return &Dumper{opts: opts, dir: filepath.Join(opts.Dir, opts.CacheName)}, nil
}

// Dir returns the directory holding this cache's dumps.
func (d *Dumper) Dir() string { return d.dir }

// Dump writes e as a new dump and applies the retention policy. A failed
// Dump leaves the existing dumps untouched.
func (d *Dumper) Dump(ctx context.Context, e stratadump.Encoder) (Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := d.dump(ctx, e)
	if err != nil {
		d.opts.Metrics.RecordError(d.opts.CacheName, "dump")
		d.opts.Logger.Error("cache dump failed", "cache", d.opts.CacheName, "error", err)
		return Info{}, err
	}
	if _, err := d.cleanup(); err != nil {
		d.opts.Logger.Warn("dump cleanup failed", "cache", d.opts.CacheName, "error", err)
	}
	return info, nil
}

func (d *Dumper) dump(ctx context.Context, e stratadump.Encoder) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	start := d.opts.Clock.Now()
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return Info{}, fmt.Errorf("dumper: create dir: %w", err)
	}
	ts := start.UTC().Truncate(time.Microsecond)
	path := filepath.Join(d.dir, FileName(ts, d.opts.FormatVersion))

	w, err := d.opts.Factory.CreateWriter(path)
	if err != nil {
		return Info{}, err
	}
	defer w.Close()
	if err := e.EncodeDump(w); err != nil {
		return Info{}, fmt.Errorf("dumper: encode %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if err := w.Finish(); err != nil {
		return Info{}, err
	}

	info := Info{Path: path, UpdateTime: ts, FormatVersion: d.opts.FormatVersion}
	if st, err := os.Stat(path); err == nil {
		info.Size = st.Size()
	}
	elapsed := clock.Since(d.opts.Clock, start)
	d.opts.Metrics.RecordDump(d.opts.CacheName, elapsed, info.Size)
	d.opts.Logger.Info("cache dumped", "cache", d.opts.CacheName, "path", path,
		"bytes", info.Size, "duration", elapsed)
	return info, nil
}

// Load decodes the newest usable dump of the current format version into
// dec. When the newest dump cannot be read, older ones are tried; dec may
// hold partial state from a failed attempt and should be reset by its
// DecodeDump. Returns ErrNoDump when there is no candidate.
func (d *Dumper) Load(ctx context.Context, dec stratadump.Decoder) (Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	candidates, err := d.usable()
	if err != nil {
		return Info{}, err
	}
	if len(candidates) == 0 {
		return Info{}, ErrNoDump
	}
	var firstErr error
	for _, info := range candidates {
		if err := ctx.Err(); err != nil {
			return Info{}, err
		}
		start := d.opts.Clock.Now()
		err := d.load(info.Path, dec)
		if err == nil {
			elapsed := clock.Since(d.opts.Clock, start)
			d.opts.Metrics.RecordLoad(d.opts.CacheName, elapsed, info.Size)
			d.opts.Logger.Info("cache dump loaded", "cache", d.opts.CacheName,
				"path", info.Path, "bytes", info.Size, "duration", elapsed)
			return info, nil
		}
		d.opts.Metrics.RecordError(d.opts.CacheName, "load")
		d.opts.Logger.Warn("cache dump unusable", "cache", d.opts.CacheName, "path", info.Path, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return Info{}, firstErr
}

func (d *Dumper) load(path string, dec stratadump.Decoder) error {
	r, err := d.opts.Factory.CreateReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := dec.DecodeDump(r); err != nil {
		return fmt.Errorf("dumper: decode %s: %w", path, err)
	}
	return r.Finish()
}

// Latest returns the newest dump Load would try first.
func (d *Dumper) Latest() (Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	candidates, err := d.usable()
	if err != nil {
		return Info{}, err
	}
	if len(candidates) == 0 {
		return Info{}, ErrNoDump
	}
	return candidates[0], nil
}

// usable returns the current-version dumps within MaxAge, newest first.
func (d *Dumper) usable() ([]Info, error) {
	all, err := d.list()
	if err != nil {
		return nil, err
	}
	now := d.opts.Clock.Now()
	var out []Info
	for _, info := range all {
		if info.FormatVersion != d.opts.FormatVersion || d.overdue(info, now) {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

func (d *Dumper) overdue(info Info, now time.Time) bool {
	return d.opts.MaxAge > 0 && now.Sub(info.UpdateTime) > d.opts.MaxAge
}

// List returns every published dump in the directory, of any format
// version, newest first.
func (d *Dumper) List() ([]Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.list()
}

// Cleanup applies the retention policy and returns the number of files
// removed. It deletes leftover temp files, dumps of other format versions,
// overdue dumps and all but the MaxCount newest current dumps.
func (d *Dumper) Cleanup() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cleanup()
}
