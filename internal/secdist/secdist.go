// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// secdist.go - the secret distribution document: a JSON file that maps cache
// names to base64-encoded dump encryption keys.

// Package secdist loads dump encryption keys from a secdist document.
package secdist

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/AndrewDonelson/stratadump"
)

// Section is the top-level key holding the cache name -> key mapping.
const Section = "CACHE_DUMP_SECRET_KEYS"

var (
	// ErrNoKey is returned when the document has no key for a cache.
	ErrNoKey = errors.New("secdist: no secret key for cache")
	// ErrBadKey is returned for keys that are not base64 of 32 bytes.
	ErrBadKey = errors.New("secdist: malformed secret key")
)

// Secdist holds the keys of one document. Safe for concurrent use.
type Secdist struct {
	mu   sync.RWMutex
	keys map[string]string
	rest map[string]json.RawMessage // other sections, preserved on Save
}

// New returns an empty document.
func New() *Secdist {
	return &Secdist{keys: make(map[string]string), rest: make(map[string]json.RawMessage)}
}

// Load reads the document at path. When missingOK is set a missing file
// yields an empty document.
func Load(path string, missingOK bool) (*Secdist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if missingOK && errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("secdist: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes a secdist document.
func Parse(b []byte) (*Secdist, error) {
	s := New()
	if err := json.Unmarshal(b, &s.rest); err != nil {
		return nil, fmt.Errorf("secdist: parse: %w", err)
	}
	if raw, ok := s.rest[Section]; ok {
		if err := json.Unmarshal(raw, &s.keys); err != nil {
			return nil, fmt.Errorf("secdist: parse %s: %w", Section, err)
		}
		delete(s.rest, Section)
	}
	if s.keys == nil {
		s.keys = make(map[string]string)
	}
	if s.rest == nil {
		s.rest = make(map[string]json.RawMessage)
	}
	return s, nil
}

// SecretKey returns the decoded key for cacheName.
func (s *Secdist) SecretKey(cacheName string) (stratadump.SecretKey, error) {
	s.mu.RLock()
	enc, ok := s.keys[cacheName]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoKey, cacheName)
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("%w for cache %q: %v", ErrBadKey, cacheName, err)
	}
	key := stratadump.SecretKey(raw)
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w for cache %q: %v", ErrBadKey, cacheName, err)
	}
	return key, nil
}

// Put stores key for cacheName, replacing any previous key.
func (s *Secdist) Put(cacheName string, key stratadump.SecretKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.keys[cacheName] = base64.StdEncoding.EncodeToString(key)
	s.mu.Unlock()
	return nil
}

// Caches returns the cache names that have a key, sorted.
func (s *Secdist) Caches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the document to path with mode 0600, replacing the previous
// file atomically. Sections other than Section are kept as loaded.
func (s *Secdist) Save(path string) error {
	s.mu.RLock()
	doc := make(map[string]any, len(s.rest)+1)
	for k, v := range s.rest {
		doc[k] = v
	}
	doc[Section] = s.keys
	b, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("secdist: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("secdist: save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("secdist: save: %w", err)
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("secdist: save: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("secdist: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("secdist: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("secdist: save: %w", err)
	}
	return nil
}
