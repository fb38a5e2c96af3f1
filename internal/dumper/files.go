// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// files.go - dump file naming, directory listing and retention.

package dumper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AndrewDonelson/stratadump"
)

// TimeLayout is the UTC timestamp at the start of every dump file name.
const TimeLayout = "2006-01-02T15:04:05.000000"

// FileName returns the name of a dump taken at t with the given format
// version, e.g. "2026-10-19T08:30:00.000000-v3".
func FileName(t time.Time, version uint64) string {
	return t.UTC().Format(TimeLayout) + "-v" + strconv.FormatUint(version, 10)
}

// ParseFileName is the inverse of FileName.
func ParseFileName(name string) (time.Time, uint64, error) {
	i := strings.LastIndex(name, "-v")
	if i < 0 {
		return time.Time{}, 0, fmt.Errorf("dumper: %q is not a dump file name", name)
	}
	t, err := time.Parse(TimeLayout, name[:i])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("dumper: %q is not a dump file name: %w", name, err)
	}
	v, err := strconv.ParseUint(name[i+2:], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("dumper: %q is not a dump file name: %w", name, err)
	}
	return t, v, nil
}

// list reads the directory. Files that are not dumps are ignored; a missing
// directory is empty.
func (d *Dumper) list() ([]Info, error) {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dumper: list %s: %w", d.dir, err)
	}
	var out []Info
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ts, version, err := ParseFileName(e.Name())
		if err != nil {
			continue
		}
		info := Info{Path: filepath.Join(d.dir, e.Name()), UpdateTime: ts, FormatVersion: version}
		if fi, err := e.Info(); err == nil {
			info.Size = fi.Size()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdateTime.After(out[j].UpdateTime) })
	return out, nil
}

func (d *Dumper) cleanup() (int, error) {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("dumper: cleanup %s: %w", d.dir, err)
	}

	removed := 0
	var errs []error
	remove := func(path, reason string) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			return
		}
		removed++
		d.opts.Logger.Debug("dump removed", "cache", d.opts.CacheName, "path", path, "reason", reason)
	}

	// Dump holds d.mu while writing, so no temp file here is in use.
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, stratadump.TempSuffix) {
			continue
		}
		if _, _, err := ParseFileName(strings.TrimSuffix(name, stratadump.TempSuffix)); err == nil {
			remove(filepath.Join(d.dir, name), "unfinished")
		}
	}

	all, err := d.list()
	if err != nil {
		return removed, err
	}
	now := d.opts.Clock.Now()
	kept := 0
	for _, info := range all {
		switch {
		case info.FormatVersion != d.opts.FormatVersion:
			remove(info.Path, "format version")
		case d.overdue(info, now):
			remove(info.Path, "max age")
		case kept >= d.opts.MaxCount:
			remove(info.Path, "max count")
		default:
			kept++
		}
	}
	return removed, errors.Join(errs...)
}
