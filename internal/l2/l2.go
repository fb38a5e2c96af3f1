// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l2.go - Redis-backed cache namespace: codec-encoded CRUD, raw access, and
// the ErrMiss sentinel. Dump and Restore of the namespace live in dump.go.

// Package l2 provides the Redis cache adapter and keyspace dumps.
package l2

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/codec"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist in Redis.
var ErrMiss = errors.New("l2: miss")

// DefaultScanCount is the COUNT hint passed to SCAN.
const DefaultScanCount = 500

// Store is a Redis namespace: every key it touches starts with KeyPrefix.
type Store struct {
	client    redis.UniversalClient
	codec     codec.Codec
	keyPrefix string
	scanCount int64
	logger    stratadump.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// Options configures a new L2 Store.
type Options struct {
	Client    redis.UniversalClient
	Codec     codec.Codec
	KeyPrefix string // without the trailing ':'
	ScanCount int64
	Logger    stratadump.Logger
}

// New creates a new L2 Store.
func New(opts Options) *Store {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.ScanCount <= 0 {
		opts.ScanCount = DefaultScanCount
	}
	if opts.Logger == nil {
		opts.Logger = stratadump.NopLogger()
	}
	return &Store{
		client:    opts.Client,
		codec:     opts.Codec,
		keyPrefix: opts.KeyPrefix,
		scanCount: opts.ScanCount,
		logger:    opts.Logger,
	}
}

// key returns the Redis key for id.
func (s *Store) key(id string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + ":" + id
	}
	return id
}

// id strips the namespace from a Redis key.
func (s *Store) id(key string) string {
	if s.keyPrefix != "" {
		return strings.TrimPrefix(key, s.keyPrefix+":")
	}
	return key
}

func (s *Store) pattern() string {
	if s.keyPrefix != "" {
		return s.keyPrefix + ":*"
	}
	return "*"
}

// Set encodes value and stores it with the given TTL. ttl <= 0 persists.
func (s *Store) Set(ctx context.Context, id string, value any, ttl time.Duration) error {
	b, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("l2 marshal: %w", err)
	}
	k := s.key(id)
	if err := s.client.Set(ctx, k, b, max(ttl, 0)).Err(); err != nil {
		return fmt.Errorf("l2 set %s: %w", k, err)
	}
	return nil
}

// Get retrieves and decodes a value into dest.
// Returns ErrMiss when key is missing; caller must check errors.Is(err, l2.ErrMiss).
func (s *Store) Get(ctx context.Context, id string, dest any) error {
	k := s.key(id)
	b, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return ErrMiss
		}
		return fmt.Errorf("l2 get %s: %w", k, err)
	}
	s.hits.Add(1)
	if err := s.codec.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("l2 unmarshal: %w", err)
	}
	return nil
}

// Delete removes a key from Redis.
func (s *Store) Delete(ctx context.Context, id string) error {
	k := s.key(id)
	if err := s.client.Del(ctx, k).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("l2 delete %s: %w", k, err)
	}
	return nil
}

// SetRaw stores pre-encoded bytes under id.
func (s *Store) SetRaw(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(id), data, max(ttl, 0)).Err()
}

// GetRaw retrieves raw bytes without decoding. A missing key is nil, nil.
func (s *Store) GetRaw(ctx context.Context, id string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

// Flush removes every key of the namespace using SCAN+DEL and returns how
// many were deleted.
func (s *Store) Flush(ctx context.Context) (int, error) {
	deleted := 0
	err := s.scan(ctx, func(keys []string) error {
		n, err := s.client.Del(ctx, keys...).Result()
		deleted += int(n)
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("l2 flush: %w", err)
	}
	return deleted, nil
}

// scan calls fn with every batch SCAN returns for the namespace.
func (s *Store) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.pattern(), s.scanCount).Result()
		if err != nil {
			return fmt.Errorf("l2 scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stats holds hit and miss counts.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns current statistics.
func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}
