// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// integer.go - tiered variable-width integer encoding. Every integer is
// widened to its 64-bit unsigned bit pattern and written in 1, 2, 4 or 9
// bytes depending on magnitude only.

package stratadump

import (
	"encoding/binary"
	"fmt"
)

// Integer is the set of types handled by WriteInt and ReadInt.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Tier boundaries. The first byte of a tier-3 value is 11xxxxxx with the low
// six bits never all set, which leaves 0xFF free as the tier-4 marker.
const (
	tier1Limit = 1 << 7
	tier2Limit = 1 << 14
	tier3Limit = 0x3f000000

	tier2Prefix = 0x80
	tier3Prefix = 0xc0
	tier4Marker = 0xff
)

// EncodedIntSize returns the number of bytes WriteInt produces for v.
func EncodedIntSize[T Integer](v T) int {
	u := uint64(v)
	switch {
	case u < tier1Limit:
		return 1
	case u < tier2Limit:
		return 2
	case u < tier3Limit:
		return 4
	default:
		return 9
	}
}

// WriteInt writes v using the tiered integer encoding. Signed values are
// sign-extended first, so every negative number takes 9 bytes.
func WriteInt[T Integer](w Writer, v T) error {
	var buf [9]byte
	return w.WriteRaw(appendUint(buf[:0], uint64(v)))
}

func appendUint(dst []byte, u uint64) []byte {
	switch {
	case u < tier1Limit:
		return append(dst, byte(u))
	case u < tier2Limit:
		return append(dst, tier2Prefix|byte(u>>8), byte(u))
	case u < tier3Limit:
		return append(dst, tier3Prefix|byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	default:
		dst = append(dst, tier4Marker)
		return binary.BigEndian.AppendUint64(dst, u)
	}
}

// ReadInt reads an integer written by WriteInt. A value that does not fit T
// is reported as ErrMalformed.
func ReadInt[T Integer](r Reader) (T, error) {
	u, err := readUint(r)
	if err != nil {
		return 0, err
	}
	v := T(u)
	if uint64(v) != u {
		return 0, fmt.Errorf("%w: integer %#x overflows %T", ErrMalformed, u, v)
	}
	return v, nil
}

func readUint(r Reader) (uint64, error) {
	head, err := r.ReadRaw(1)
	if err != nil {
		return 0, err
	}
	b0 := head[0]
	switch {
	case b0&0x80 == 0:
		return uint64(b0), nil
	case b0&0xc0 == tier2Prefix:
		rest, err := r.ReadRaw(1)
		if err != nil {
			return 0, err
		}
		return uint64(b0&0x3f)<<8 | uint64(rest[0]), nil
	case b0 == tier4Marker:
		rest, err := r.ReadRaw(8)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(rest), nil
	default:
		rest, err := r.ReadRaw(3)
		if err != nil {
			return 0, err
		}
		return uint64(b0&0x3f)<<24 | uint64(rest[0])<<16 | uint64(rest[1])<<8 | uint64(rest[2]), nil
	}
}
