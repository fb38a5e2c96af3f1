// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// snapshot.go - point-in-time copies of a Store that can be written to and
// read from a dump, so a restarted process starts with a warm cache.

package l1

import (
	"time"

	"github.com/AndrewDonelson/stratadump"
)

// Entry is one cached value inside a Snapshot. ExpiresAt is absolute; the
// zero time means the entry never expires.
type Entry[V any] struct {
	Key       string
	Value     V
	ExpiresAt time.Time
	Hits      int
}

// EncodeDump implements stratadump.Encoder.
func (e Entry[V]) EncodeDump(w stratadump.Writer) error {
	if err := stratadump.WriteString(w, e.Key); err != nil {
		return err
	}
	if err := stratadump.Write(w, e.Value); err != nil {
		return err
	}
	if err := stratadump.WriteTime(w, e.ExpiresAt); err != nil {
		return err
	}
	return stratadump.WriteInt(w, e.Hits)
}

// DecodeDump implements stratadump.Decoder.
func (e *Entry[V]) DecodeDump(r stratadump.Reader) error {
	var err error
	if e.Key, err = stratadump.ReadString(r); err != nil {
		return err
	}
	if e.Value, err = stratadump.Read[V](r); err != nil {
		return err
	}
	if e.ExpiresAt, err = stratadump.ReadTime(r); err != nil {
		return err
	}
	e.Hits, err = stratadump.ReadInt[int](r)
	return err
}

// Snapshot is a consistent-per-shard copy of a Store. Within each shard the
// entries are ordered so that restoring them in sequence reproduces the
// eviction order.
type Snapshot[V any] struct {
	TakenAt time.Time
	Entries []Entry[V]
}

// EncodeDump implements stratadump.Encoder.
func (s *Snapshot[V]) EncodeDump(w stratadump.Writer) error {
	if err := stratadump.WriteTime(w, s.TakenAt); err != nil {
		return err
	}
	return stratadump.WriteSlice(w, s.Entries)
}

// DecodeDump implements stratadump.Decoder.
func (s *Snapshot[V]) DecodeDump(r stratadump.Reader) error {
	var err error
	if s.TakenAt, err = stratadump.ReadTime(r); err != nil {
		return err
	}
	s.Entries, err = stratadump.ReadSlice[Entry[V]](r)
	return err
}

// Snapshot copies every live entry. Expired entries are left out.
func (s *Store[V]) Snapshot() *Snapshot[V] {
	now := s.clock.Now()
	snap := &Snapshot[V]{TakenAt: now}
	for i := 0; i < numShards; i++ {
		sh := s.shards[i]
		sh.mu.RLock()
		// put pushes LRU/FIFO entries to the front and LFU entries to the
		// back, so walk in the opposite direction.
		if sh.policy == LFU {
			for el := sh.evictList.Front(); el != nil; el = el.Next() {
				snap.add(el.Value.(*entry[V]), now)
			}
		} else {
			for el := sh.evictList.Back(); el != nil; el = el.Prev() {
				snap.add(el.Value.(*entry[V]), now)
			}
		}
		sh.mu.RUnlock()
	}
	return snap
}

func (snap *Snapshot[V]) add(e *entry[V], now time.Time) {
	if e.expired(now) {
		return
	}
	snap.Entries = append(snap.Entries, Entry[V]{
		Key:       e.key,
		Value:     e.value,
		ExpiresAt: e.expiresAt,
		Hits:      e.freq,
	})
}

// Restore loads snap into the store and returns the number of entries
// applied. Entries that expired since the snapshot was taken are skipped and
// existing keys are overwritten.
func (s *Store[V]) Restore(snap *Snapshot[V]) int {
	now := s.clock.Now()
	restored := 0
	for _, e := range snap.Entries {
		if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
			continue
		}
		hits := max(e.Hits, 1)
		sh := s.getShard(e.Key)
		sh.mu.Lock()
		if old, ok := sh.items[e.Key]; ok {
			delete(sh.items, old.key)
			sh.evictList.Remove(old.elem)
		}
		sh.put(e.Key, e.Value, e.ExpiresAt, hits)
		sh.mu.Unlock()
		restored++
	}
	return restored
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Store[V]) Len() int {
	return int(s.Stats().Entries)
}
