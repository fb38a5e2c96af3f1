// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// dump.go - writes the string keys of a namespace to a dump and restores
// them. Each entry is preceded by a true continuation flag; a false flag
// ends the stream.

package l2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/redis/go-redis/v9"
)

// restoreBatch is the number of SETs sent per pipeline during Restore.
const restoreBatch = 500

// Entry is one string key inside a dump. ID has the namespace stripped; TTL
// is the remaining time to live at dump time, zero meaning none.
type Entry struct {
	ID    string
	Value []byte
	TTL   time.Duration
}

// EncodeDump implements stratadump.Encoder.
func (e Entry) EncodeDump(w stratadump.Writer) error {
	if err := stratadump.WriteString(w, e.ID); err != nil {
		return err
	}
	if err := stratadump.WriteBytes(w, e.Value); err != nil {
		return err
	}
	return stratadump.Write(w, e.TTL)
}

// DecodeDump implements stratadump.Decoder.
func (e *Entry) DecodeDump(r stratadump.Reader) error {
	var err error
	if e.ID, err = stratadump.ReadString(r); err != nil {
		return err
	}
	if e.Value, err = stratadump.ReadBytes(r); err != nil {
		return err
	}
	if e.TTL, err = stratadump.Read[time.Duration](r); err != nil {
		return err
	}
	if e.TTL < 0 {
		return fmt.Errorf("%w: negative ttl for %q", stratadump.ErrMalformed, e.ID)
	}
	return nil
}

// Dump writes every string key of the namespace to w and returns the number
// of entries written. Keys of other types, and keys that expire while the
// dump runs, are skipped. Dump does not call w.Finish.
func (s *Store) Dump(ctx context.Context, w stratadump.Writer) (int, error) {
	written, skipped := 0, 0
	err := s.scan(ctx, func(keys []string) error {
		pipe := s.client.Pipeline()
		types := make([]*redis.StatusCmd, len(keys))
		values := make([]*redis.StringCmd, len(keys))
		ttls := make([]*redis.DurationCmd, len(keys))
		for i, k := range keys {
			types[i] = pipe.Type(ctx, k)
			values[i] = pipe.Get(ctx, k)
			ttls[i] = pipe.PTTL(ctx, k)
		}
		// GET fails with WRONGTYPE for non-string keys; checked per key below.
		_, _ = pipe.Exec(ctx)

		for i, k := range keys {
			typ, err := types[i].Result()
			if err != nil {
				return fmt.Errorf("l2 type %s: %w", k, err)
			}
			if typ != "string" {
				skipped++
				continue
			}
			value, err := values[i].Bytes()
			if errors.Is(err, redis.Nil) {
				skipped++
				continue
			}
			if err != nil {
				return fmt.Errorf("l2 get %s: %w", k, err)
			}
			ttl, err := ttls[i].Result()
			if err != nil {
				return fmt.Errorf("l2 pttl %s: %w", k, err)
			}
			switch {
			case ttl == -2: // gone
				skipped++
				continue
			case ttl < 0: // no expiry
				ttl = 0
			case ttl == 0: // expiring now; keep it volatile
				ttl = time.Millisecond
			}
			if err := stratadump.WriteBool(w, true); err != nil {
				return err
			}
			if err := stratadump.Write(w, Entry{ID: s.id(k), Value: value, TTL: ttl}); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return written, err
	}
	if err := stratadump.WriteBool(w, false); err != nil {
		return written, err
	}
	s.logger.Debug("l2 dump written", "prefix", s.keyPrefix, "entries", written, "skipped", skipped)
	return written, nil
}

// Snapshot is a fully decoded dump. Decoding does not call Finish, so a
// Snapshot can be loaded by any owner of the Reader and applied afterwards.
type Snapshot struct {
	Entries []Entry
}

// EncodeDump implements stratadump.Encoder, writing the format Dump writes.
func (s *Snapshot) EncodeDump(w stratadump.Writer) error {
	for _, e := range s.Entries {
		if err := stratadump.WriteBool(w, true); err != nil {
			return err
		}
		if err := stratadump.Write(w, e); err != nil {
			return err
		}
	}
	return stratadump.WriteBool(w, false)
}

// DecodeDump implements stratadump.Decoder.
func (s *Snapshot) DecodeDump(r stratadump.Reader) error {
	s.Entries = s.Entries[:0]
	for {
		more, err := stratadump.ReadBool(r)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		e, err := stratadump.Read[Entry](r)
		if err != nil {
			return err
		}
		s.Entries = append(s.Entries, e)
	}
}

// Restore reads a dump written by Dump and stores every entry under this
// store's namespace. Nothing is written to Redis unless the whole dump
// decodes and r.Finish succeeds. Existing keys are overwritten.
func (s *Store) Restore(ctx context.Context, r stratadump.Reader) (int, error) {
	var snap Snapshot
	if err := snap.DecodeDump(r); err != nil {
		return 0, err
	}
	if err := r.Finish(); err != nil {
		return 0, err
	}
	return s.Apply(ctx, &snap)
}

// Apply stores the entries of snap under this store's namespace and returns
// how many were written.
func (s *Store) Apply(ctx context.Context, snap *Snapshot) (int, error) {
	entries := snap.Entries
	for start := 0; start < len(entries); start += restoreBatch {
		pipe := s.client.Pipeline()
		for _, e := range entries[start:min(start+restoreBatch, len(entries))] {
			pipe.Set(ctx, s.key(e.ID), e.Value, e.TTL)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return start, fmt.Errorf("l2 restore: %w", err)
		}
	}
	s.logger.Debug("l2 dump restored", "prefix", s.keyPrefix, "entries", len(entries))
	return len(entries), nil
}
