// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// crypto.go - secret key handling and AES-256 setup shared by the encrypted
// writer and reader.

package stratadump

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/AndrewDonelson/stratadump/internal/aead"
)

// KeySize is the required secret key length for AES-256.
const KeySize = 32

// IVSize is the length of the cleartext IV that prefixes every encrypted dump.
const IVSize = aead.IVSize

// TagSize is the length of the authentication tag that ends every encrypted
// dump.
const TagSize = aead.TagSize

// EncryptionOverhead is the number of bytes an encrypted dump adds to its
// payload.
const EncryptionOverhead = IVSize + TagSize

// SecretKey is the symmetric key used to encrypt dumps. It never prints its
// contents.
type SecretKey []byte

// String implements fmt.Stringer.
func (SecretKey) String() string { return "[redacted]" }

// GoString implements fmt.GoStringer.
func (SecretKey) GoString() string { return "stratadump.SecretKey([redacted])" }

// Validate reports ErrInvalidKey unless k is exactly KeySize bytes.
func (k SecretKey) Validate() error {
	if len(k) != KeySize {
		return ErrInvalidKey
	}
	return nil
}

// clone returns an independent copy of k.
func (k SecretKey) clone() SecretKey {
	return append(SecretKey(nil), k...)
}

// GenerateSecretKey returns a fresh random key.
func GenerateSecretKey() (SecretKey, error) {
	k := make(SecretKey, KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return nil, err
	}
	return k, nil
}

func newBlock(key SecretKey) (cipher.Block, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return aes.NewCipher(key)
}

// generateIV returns a single-use IV. It is written to the dump in
// cleartext and never logged.
func generateIV() ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	return iv, nil
}
