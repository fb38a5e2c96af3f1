// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// cache.go - in-memory TTL cache that survives restarts: entries live in a
// sharded store and are written to, and read back from, dump files.

// Package cache is an in-memory TTL cache whose contents can be dumped to
// disk and loaded again when the process restarts.
//
//	f, _ := stratadump.NewEncryptedOperationsFactory(key, 0o600)
//	c, _ := cache.New[string](cache.Options{
//		Name: "sessions", DumpDir: "/var/cache/app", FormatVersion: 1, Factory: f,
//	})
//	defer c.Close()
//	if _, err := c.Load(ctx); err != nil && !errors.Is(err, cache.ErrNoDump) {
//		log.Printf("cold start: %v", err)
//	}
//	go c.Run(ctx, 5*time.Minute)
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/clock"
	"github.com/AndrewDonelson/stratadump/internal/dumper"
	"github.com/AndrewDonelson/stratadump/internal/l1"
	"github.com/AndrewDonelson/stratadump/internal/metrics"
)

// Eviction selects the entry removed when a shard is full.
type Eviction = l1.EvictionPolicy

const (
	LRU  = l1.LRU
	LFU  = l1.LFU
	FIFO = l1.FIFO
)

// DumpInfo describes a dump file.
type DumpInfo = dumper.Info

var (
	// ErrNoDump is returned by Load when there is nothing to load.
	ErrNoDump = dumper.ErrNoDump
	// ErrInvalidOptions is returned by New for incomplete Options.
	ErrInvalidOptions = dumper.ErrInvalidOptions
)

// Options configures a Cache.
type Options struct {
	// Name identifies the cache in logs and names its dump directory under
	// DumpDir.
	Name    string
	DumpDir string
	// FormatVersion must change whenever the encoding of V changes.
	FormatVersion uint64
	Factory       stratadump.OperationsFactory

	TTL        time.Duration // default entry TTL; 0 = no expiry
	MaxEntries int           // per shard; 0 = unbounded
	Eviction   Eviction

	// Dump retention
	MaxDumpCount int
	MaxDumpAge   time.Duration

	Clock  clock.Clock
	Logger stratadump.Logger
}

// Stats combines the store counters with dump and load totals.
type Stats struct {
	Hits, Misses, Entries int64

	Dumps, Loads         int64
	DumpBytes, LoadBytes int64
	LastDump, LastLoad   time.Duration
	DumpErrors           int64
	LoadErrors           int64
}

// Cache is an in-memory cache of V values backed by dump files. V must be
// dumpable: a built-in scalar, string, []byte, time value or a type
// implementing stratadump.Encoder and stratadump.Decoder (see
// stratadump.MsgPackValue and stratadump.JSONValue).
type Cache[V any] struct {
	name    string
	store   *l1.Store[V]
	dumper  *dumper.Dumper
	counter *metrics.Counter
	logger  stratadump.Logger
}

// New creates a Cache. Nothing is loaded; call Load to warm it.
func New[V any](opts Options) (*Cache[V], error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = stratadump.NopLogger()
	}
	counter := metrics.NewCounter()
	d, err := dumper.New(dumper.Options{
		Dir:           opts.DumpDir,
		CacheName:     opts.Name,
		FormatVersion: opts.FormatVersion,
		Factory:       opts.Factory,
		MaxCount:      opts.MaxDumpCount,
		MaxAge:        opts.MaxDumpAge,
		Clock:         opts.Clock,
		Metrics:       counter,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cache %q: %w", opts.Name, err)
	}
	store := l1.New(l1.Options[V]{
		TTL:        opts.TTL,
		MaxEntries: opts.MaxEntries,
		Eviction:   opts.Eviction,
		Clock:      opts.Clock,
	})
	return &Cache[V]{
		name:    opts.Name,
		store:   store,
		dumper:  d,
		counter: counter,
		logger:  opts.Logger,
	}, nil
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(key string) (V, bool) { return c.store.Get(key) }

// Set stores value under key. A zero ttl uses Options.TTL; a negative ttl
// never expires.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) { c.store.Set(key, value, ttl) }

// Delete removes key.
func (c *Cache[V]) Delete(key string) { c.store.Delete(key) }

// Flush removes every entry. Existing dumps are kept.
func (c *Cache[V]) Flush() { c.store.Flush() }

// Len returns the number of entries.
func (c *Cache[V]) Len() int { return c.store.Len() }

// Dump writes the live entries to a new dump file and prunes old ones.
func (c *Cache[V]) Dump(ctx context.Context) (DumpInfo, error) {
	return c.dumper.Dump(ctx, c.store.Snapshot())
}

// Load restores the newest usable dump and returns the number of entries
// applied. Entries that expired while the process was down are skipped;
// keys already in the cache are overwritten.
func (c *Cache[V]) Load(ctx context.Context) (int, error) {
	var snap l1.Snapshot[V]
	info, err := c.dumper.Load(ctx, &snap)
	if err != nil {
		return 0, err
	}
	n := c.store.Restore(&snap)
	c.logger.Info("cache warmed", "cache", c.name, "path", info.Path,
		"entries", n, "expired", len(snap.Entries)-n)
	return n, nil
}

// Run dumps the cache every interval until ctx is done, then writes a final
// dump and returns its error. Failed periodic dumps are logged and retried
// on the next tick.
func (c *Cache[V]) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("cache %q: dump interval must be positive", c.name)
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			_, err := c.Dump(context.WithoutCancel(ctx))
			return err
		case <-t.C:
			_, _ = c.Dump(ctx)
		}
	}
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() Stats {
	s := c.store.Stats()
	m := c.counter.Get(c.name)
	return Stats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Entries:    s.Entries,
		Dumps:      m.Dumps,
		Loads:      m.Loads,
		DumpBytes:  m.DumpBytes,
		LoadBytes:  m.LoadBytes,
		LastDump:   m.LastDump,
		LastLoad:   m.LastLoad,
		DumpErrors: m.Errors["dump"],
		LoadErrors: m.Errors["load"],
	}
}

// Close stops the store's background sweeper.
func (c *Cache[V]) Close() { c.store.Close() }
