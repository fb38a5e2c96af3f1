// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// errors.go - sentinel error variables returned by the dump codec and the
// file backends: truncated input, integrity and trailing-data failures,
// malformed values and configuration problems.

// Package stratadump persists the in-memory state of a long-lived cache to
// durable storage and restores it at startup, so a service can warm-start
// instead of rebuilding its caches from scratch.
package stratadump

import "errors"

// Stream errors
var (
	ErrTruncated    = errors.New("stratadump: unexpected end of dump")
	ErrIntegrity    = errors.New("stratadump: dump failed authentication")
	ErrTrailingData = errors.New("stratadump: unexpected extra data at the end of dump")
	ErrMalformed    = errors.New("stratadump: malformed value in dump")
)

// Lifecycle errors
var (
	ErrFinished = errors.New("stratadump: dump already finished")
	ErrClosed   = errors.New("stratadump: dump closed")
)

// Type errors
var (
	ErrUnsupportedType = errors.New("stratadump: type has no dump encoding")
)

// Config errors
var (
	ErrInvalidKey    = errors.New("stratadump: secret key must be exactly 32 bytes")
	ErrInvalidConfig = errors.New("stratadump: invalid configuration")
)
