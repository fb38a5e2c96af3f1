// Package metrics provides the Recorder interface for dump and load
// operations, a noop implementation and an in-process counter.
package metrics

import (
	"sync"
	"time"
)

// Recorder is the interface for recording dump/load metrics.
type Recorder interface {
	RecordDump(cache string, d time.Duration, bytes int64)
	RecordLoad(cache string, d time.Duration, bytes int64)
	RecordError(cache, op string)
}

// Noop is a Recorder that discards all data.
type Noop struct{}

func (Noop) RecordDump(cache string, d time.Duration, bytes int64) {}
func (Noop) RecordLoad(cache string, d time.Duration, bytes int64) {}
func (Noop) RecordError(cache, op string)                          {}

// Snapshot is the state of a Counter for one cache.
type Snapshot struct {
	Dumps, Loads         int64
	DumpBytes, LoadBytes int64
	LastDump, LastLoad   time.Duration
	Errors               map[string]int64 // by op
}

// Counter keeps per-cache totals in memory. Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	caches map[string]*Snapshot
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{caches: make(map[string]*Snapshot)}
}

func (c *Counter) get(cache string) *Snapshot {
	s, ok := c.caches[cache]
	if !ok {
		s = &Snapshot{Errors: make(map[string]int64)}
		c.caches[cache] = s
	}
	return s
}

// RecordDump implements Recorder.
func (c *Counter) RecordDump(cache string, d time.Duration, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.get(cache)
	s.Dumps++
	s.DumpBytes += bytes
	s.LastDump = d
}

// RecordLoad implements Recorder.
func (c *Counter) RecordLoad(cache string, d time.Duration, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.get(cache)
	s.Loads++
	s.LoadBytes += bytes
	s.LastLoad = d
}

// RecordError implements Recorder.
func (c *Counter) RecordError(cache, op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.get(cache).Errors[op]++
}

// Get returns a copy of the totals for cache.
func (c *Counter) Get(cache string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := *c.get(cache)
	s.Errors = make(map[string]int64, len(s.Errors))
	for op, n := range c.caches[cache].Errors {
		s.Errors[op] = n
	}
	return s
}
