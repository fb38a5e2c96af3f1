// Package l1 provides a sharded, concurrent in-memory cache with TTL and
// eviction whose contents can be dumped and restored across restarts.
package l1

import (
	"container/list"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AndrewDonelson/stratadump/internal/clock"
)

const numShards = 256

// EvictionPolicy determines which entry is removed when MaxEntries is reached.
type EvictionPolicy int

const (
	LRU  EvictionPolicy = iota // Least Recently Used
	LFU                        // Least Frequently Used
	FIFO                       // First In, First Out
)

// Options configures an L1 Store.
type Options[V any] struct {
	TTL           time.Duration
	MaxEntries    int // per shard; 0 = unbounded
	Eviction      EvictionPolicy
	SweepInterval time.Duration
	Clock         clock.Clock
	OnEvict       func(key string, value V)
}

// entry holds a cached value and metadata.
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	freq      int
	elem      *list.Element
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// shard is one partition of the cache.
type shard[V any] struct {
	mu         sync.RWMutex
	items      map[string]*entry[V]
	evictList  *list.List
	maxEntries int
	policy     EvictionPolicy
	onEvict    func(key string, value V)
}

// Store is the sharded in-memory cache.
type Store[V any] struct {
	shards    [numShards]*shard[V]
	opts      Options[V]
	clock     clock.Clock
	hits      atomic.Int64
	misses    atomic.Int64
	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a new L1 Store.
func New[V any](opts Options[V]) *Store[V] {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = 30 * time.Second
	}
	s := &Store[V]{opts: opts, clock: opts.Clock, stopCh: make(chan struct{})}
	for i := 0; i < numShards; i++ {
		s.shards[i] = &shard[V]{
			items:      make(map[string]*entry[V]),
			evictList:  list.New(),
			maxEntries: opts.MaxEntries,
			policy:     opts.Eviction,
			onEvict:    opts.OnEvict,
		}
	}
	go s.sweepLoop()
	return s
}

func (s *Store[V]) getShard(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%numShards]
}

// Set stores value under key with an optional TTL. A zero ttl uses the
// store's default; a negative ttl means the entry never expires.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = s.opts.TTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl)
	}
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.put(key, value, expiresAt, 1)
}

// put inserts or replaces key. Callers hold sh.mu.
func (sh *shard[V]) put(key string, value V, expiresAt time.Time, freq int) {
	if e, ok := sh.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		e.freq += freq
		if sh.policy != LFU {
			sh.evictList.MoveToFront(e.elem)
		}
		return
	}

	if sh.maxEntries > 0 && len(sh.items) >= sh.maxEntries {
		sh.evict()
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt, freq: freq}
	switch sh.policy {
	case LRU, FIFO:
		e.elem = sh.evictList.PushFront(e)
	case LFU:
		e.elem = sh.evictList.PushBack(e)
	}
	sh.items[key] = e
}

// Get retrieves a value by key.
func (s *Store[V]) Get(key string) (V, bool) {
	m, ok := s.GetWithMeta(key)
	return m.Value, ok
}

// Delete removes a key from the cache.
func (s *Store[V]) Delete(key string) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.items[key]; ok {
		sh.removeEntry(e)
	}
}

// Flush removes all entries from all shards.
func (s *Store[V]) Flush() {
	for i := 0; i < numShards; i++ {
		sh := s.shards[i]
		sh.mu.Lock()
		sh.items = make(map[string]*entry[V])
		sh.evictList.Init()
		sh.mu.Unlock()
	}
}

// FlushPrefix removes all entries whose key starts with prefix.
func (s *Store[V]) FlushPrefix(prefix string) {
	for i := 0; i < numShards; i++ {
		sh := s.shards[i]
		sh.mu.Lock()
		for k, e := range sh.items {
			if strings.HasPrefix(k, prefix) {
				sh.removeEntry(e)
			}
		}
		sh.mu.Unlock()
	}
}

// EntryMeta holds metadata returned by GetWithMeta.
type EntryMeta[V any] struct {
	Value        V
	TTLRemaining time.Duration
	HitCount     int
}

// GetWithMeta retrieves a value and its metadata.
func (s *Store[V]) GetWithMeta(key string) (EntryMeta[V], bool) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.items[key]
	if !ok {
		s.misses.Add(1)
		return EntryMeta[V]{}, false
	}
	now := s.clock.Now()
	if e.expired(now) {
		sh.removeEntry(e)
		s.misses.Add(1)
		return EntryMeta[V]{}, false
	}
	e.freq++
	if sh.policy == LRU {
		sh.evictList.MoveToFront(e.elem)
	}
	var remaining time.Duration
	if !e.expiresAt.IsZero() {
		remaining = e.expiresAt.Sub(now)
	}
	s.hits.Add(1)
	return EntryMeta[V]{Value: e.value, TTLRemaining: remaining, HitCount: e.freq}, true
}

// Stats holds hit/miss/entry counts.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// Stats returns current statistics.
func (s *Store[V]) Stats() Stats {
	var total int64
	for i := 0; i < numShards; i++ {
		sh := s.shards[i]
		sh.mu.RLock()
		total += int64(len(sh.items))
		sh.mu.RUnlock()
	}
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Entries: total}
}

// Close stops background goroutines. It is safe to call more than once.
func (s *Store[V]) Close() {
	s.closeOnce.Do(func() { close(s.stopCh) })
}

func (s *Store[V]) sweepLoop() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

// Sweep removes every expired entry and returns how many were removed.
func (s *Store[V]) Sweep() int {
	now := s.clock.Now()
	removed := 0
	for i := 0; i < numShards; i++ {
		sh := s.shards[i]
		sh.mu.Lock()
		for _, e := range sh.items {
			if e.expired(now) {
				sh.removeEntry(e)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (sh *shard[V]) evict() {
	switch sh.policy {
	case LRU, FIFO:
		if back := sh.evictList.Back(); back != nil {
			sh.removeEntry(back.Value.(*entry[V]))
		}
	case LFU:
		var minEntry *entry[V]
		for _, e := range sh.items {
			if minEntry == nil || e.freq < minEntry.freq {
				minEntry = e
			}
		}
		if minEntry != nil {
			sh.removeEntry(minEntry)
		}
	}
}

func (sh *shard[V]) removeEntry(e *entry[V]) {
	delete(sh.items, e.key)
	if e.elem != nil {
		sh.evictList.Remove(e.elem)
	}
	if sh.onEvict != nil {
		sh.onEvict(e.key, e.value)
	}
}
