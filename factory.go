// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// factory.go - operations factories: the only surface a cache manager uses
// to obtain a Writer or Reader for a dump path.

package stratadump

import (
	"fmt"
	"os"
)

// OperationsFactory creates writers and readers for dump files.
type OperationsFactory interface {
	CreateWriter(fullPath string) (Writer, error)
	CreateReader(fullPath string) (Reader, error)
}

var (
	_ OperationsFactory = (*EncryptedOperationsFactory)(nil)
	_ OperationsFactory = (*FileOperationsFactory)(nil)

	_ Writer = (*EncryptedWriter)(nil)
	_ Writer = (*FileWriter)(nil)
	_ Writer = (*BinaryWriter)(nil)
	_ Reader = (*EncryptedReader)(nil)
	_ Reader = (*FileReader)(nil)
	_ Reader = (*BinaryReader)(nil)
)

// EncryptedOperationsFactory creates encrypted dumps. Its key and
// permissions never change, so it may be shared between goroutines.
type EncryptedOperationsFactory struct {
	key  SecretKey
	perm os.FileMode
	opts []Option
}

// NewEncryptedOperationsFactory binds a copy of key and perm.
func NewEncryptedOperationsFactory(key SecretKey, perm os.FileMode, opts ...Option) (*EncryptedOperationsFactory, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return &EncryptedOperationsFactory{key: key.clone(), perm: perm, opts: opts}, nil
}

// CreateWriter implements OperationsFactory.
func (f *EncryptedOperationsFactory) CreateWriter(fullPath string) (Writer, error) {
	return NewEncryptedWriter(fullPath, f.key, f.perm, f.opts...)
}

// CreateReader implements OperationsFactory.
func (f *EncryptedOperationsFactory) CreateReader(fullPath string) (Reader, error) {
	return NewEncryptedReader(fullPath, f.key, f.opts...)
}

// FileOperationsFactory creates plain dump files.
type FileOperationsFactory struct {
	perm os.FileMode
	opts []Option
}

// NewFileOperationsFactory binds perm.
func NewFileOperationsFactory(perm os.FileMode, opts ...Option) *FileOperationsFactory {
	return &FileOperationsFactory{perm: perm, opts: opts}
}

// CreateWriter implements OperationsFactory.
func (f *FileOperationsFactory) CreateWriter(fullPath string) (Writer, error) {
	return NewFileWriter(fullPath, f.perm, f.opts...)
}

// CreateReader implements OperationsFactory.
func (f *FileOperationsFactory) CreateReader(fullPath string) (Reader, error) {
	return NewFileReader(fullPath, f.opts...)
}

// NewOperationsFactory builds the factory described by cfg: encrypted when
// cfg.SecretKey is set, plain otherwise.
func NewOperationsFactory(cfg Config) (OperationsFactory, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("stratadump: factory config: %w", err)
	}
	if cfg.SecretKey != nil {
		f, err := NewEncryptedOperationsFactory(cfg.SecretKey, cfg.FilePerm, cfg.options()...)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return NewFileOperationsFactory(cfg.FilePerm, cfg.options()...), nil
}
