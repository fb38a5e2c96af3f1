// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// config.go - Config for NewOperationsFactory and the Option setters
// accepted by the individual writer and reader constructors.

package stratadump

import (
	"fmt"
	"os"
)

// DefaultFilePerm is the permission used for dump files when none is set.
const DefaultFilePerm os.FileMode = 0o600

// DefaultWriteBufferSize is the default write buffer size of file writers.
const DefaultWriteBufferSize = 32 * 1024

// Config contains all operations factory configuration.
type Config struct {
	// SecretKey enables the encrypted backend (must be 32 bytes; nil = plain
	// files).
	SecretKey SecretKey

	// FilePerm is applied to every dump file at creation.
	FilePerm os.FileMode

	// Buffering
	MinPumpSize     int
	WriteBufferSize int

	Logger Logger
}

func (c *Config) defaults() {
	if c.FilePerm == 0 {
		c.FilePerm = DefaultFilePerm
	}
	if c.MinPumpSize == 0 {
		c.MinPumpSize = DefaultMinPumpSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = DefaultWriteBufferSize
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

func (c *Config) validate() error {
	if c.FilePerm&^os.ModePerm != 0 {
		return fmt.Errorf("%w: file permission %v has non-permission bits", ErrInvalidConfig, c.FilePerm)
	}
	if c.MinPumpSize < 0 || c.WriteBufferSize < 0 {
		return fmt.Errorf("%w: buffer sizes must not be negative", ErrInvalidConfig)
	}
	if c.SecretKey != nil {
		return c.SecretKey.Validate()
	}
	return nil
}

func (c *Config) options() []Option {
	return []Option{
		WithLogger(c.Logger),
		WithMinPumpSize(c.MinPumpSize),
		WithWriteBufferSize(c.WriteBufferSize),
	}
}

// Option tunes a single writer or reader.
type Option func(*options)

type options struct {
	logger          Logger
	minPumpSize     int
	writeBufferSize int
}

func newOptions(opts []Option) options {
	o := options{
		logger:          noopLogger{},
		minPumpSize:     DefaultMinPumpSize,
		writeBufferSize: DefaultWriteBufferSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMinPumpSize sets the smallest chunk a reader pulls from disk.
func WithMinPumpSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minPumpSize = n
		}
	}
}

// WithWriteBufferSize sets a writer's buffer size.
func WithWriteBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.writeBufferSize = n
		}
	}
}
