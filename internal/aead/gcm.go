// Package aead implements AES-GCM as an incremental stream. The output of a
// Sealer is byte-for-byte the output of cipher.AEAD.Seal for the same key and
// nonce with no additional data, but plaintext can be fed in pieces and the
// tag is produced at the end.
package aead

import (
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"errors"
)

const (
	// IVSize is the nonce length used by the dump files.
	IVSize = 16
	// TagSize is the length of the authentication tag.
	TagSize = 16

	blockSize = 16
)

// ErrAuth is returned by Opener.Verify when the tag does not match.
var ErrAuth = errors.New("aead: message authentication failed")

// fieldElement is an element of GF(2^128) in GCM bit order: hi holds the
// first eight bytes big-endian.
type fieldElement struct {
	hi, lo uint64
}

func loadElement(b []byte) fieldElement {
	return fieldElement{hi: binary.BigEndian.Uint64(b[:8]), lo: binary.BigEndian.Uint64(b[8:16])}
}

func (x fieldElement) xor(y fieldElement) fieldElement {
	return fieldElement{hi: x.hi ^ y.hi, lo: x.lo ^ y.lo}
}

// table holds the multiples of H by every 4-bit value, indexed in GCM bit
// order, for Shoup's 4-bit multiplication.
type table [16]fieldElement

// double multiplies x by the field generator.
func double(x fieldElement) fieldElement {
	d := fieldElement{hi: x.hi >> 1, lo: x.lo>>1 | x.hi<<63}
	if x.lo&1 == 1 {
		d.hi ^= 0xe1 << 56
	}
	return d
}

// reverseBits reverses the order of the low four bits of i.
func reverseBits(i int) int {
	i = (i<<2)&0xc | (i>>2)&0x3
	i = (i<<1)&0xa | (i>>1)&0x5
	return i
}

func newTable(h fieldElement) *table {
	var t table
	t[reverseBits(1)] = h
	for i := 2; i < 16; i += 2 {
		t[reverseBits(i)] = double(t[reverseBits(i/2)])
		t[reverseBits(i+1)] = t[reverseBits(i)].xor(h)
	}
	return &t
}

// reduction[i] is the reduction of i shifted out of the low end, pre-shifted
// into the top 16 bits.
var reduction = [16]uint16{
	0x0000, 0x1c20, 0x3840, 0x2460, 0x7080, 0x6ca0, 0x48c0, 0x54e0,
	0xe100, 0xfd20, 0xd940, 0xc560, 0x9180, 0x8da0, 0xa9c0, 0xb5e0,
}

// mul returns y times H.
func (t *table) mul(y fieldElement) fieldElement {
	var z fieldElement
	for _, word := range [2]uint64{y.lo, y.hi} {
		for j := 0; j < 64; j += 4 {
			msw := z.lo & 0xf
			z.lo = z.lo>>4 | z.hi<<60
			z.hi = z.hi>>4 ^ uint64(reduction[msw])<<48
			e := &t[word&0xf]
			z.hi ^= e.hi
			z.lo ^= e.lo
			word >>= 4
		}
	}
	return z
}

// ghash accumulates GHASH over a byte stream of arbitrary chunking.
type ghash struct {
	tab     *table
	y       fieldElement
	partial [blockSize]byte
	n       int // bytes buffered in partial
}

func (g *ghash) write(p []byte) {
	for len(p) > 0 {
		if g.n == 0 && len(p) >= blockSize {
			g.y = g.tab.mul(g.y.xor(loadElement(p)))
			p = p[blockSize:]
			continue
		}
		c := copy(g.partial[g.n:], p)
		g.n += c
		p = p[c:]
		if g.n == blockSize {
			g.y = g.tab.mul(g.y.xor(loadElement(g.partial[:])))
			g.n = 0
		}
	}
}

// pad completes a partially filled block with zeros.
func (g *ghash) pad() {
	if g.n == 0 {
		return
	}
	for i := g.n; i < blockSize; i++ {
		g.partial[i] = 0
	}
	g.y = g.tab.mul(g.y.xor(loadElement(g.partial[:])))
	g.n = 0
}

// lengths closes the hash with the bit lengths of the additional data and
// the ciphertext.
func (g *ghash) lengths(aadLen, textLen uint64) {
	g.pad()
	g.y = g.tab.mul(g.y.xor(fieldElement{hi: aadLen * 8, lo: textLen * 8}))
}

// core is the state shared by Sealer and Opener.
type core struct {
	block   cipher.Block
	hash    ghash
	counter [blockSize]byte // first counter block of the current segment
	ctr     cipher.Stream
	left    uint64 // keystream bytes before the low 32 counter bits wrap
	tagMask [blockSize]byte
	length  uint64
}

func newCore(block cipher.Block, iv []byte) (*core, error) {
	if block.BlockSize() != blockSize {
		return nil, errors.New("aead: cipher must have a 128-bit block size")
	}
	if len(iv) == 0 {
		return nil, errors.New("aead: empty nonce")
	}
	c := &core{block: block}
	var h [blockSize]byte
	block.Encrypt(h[:], h[:])
	c.hash.tab = newTable(loadElement(h[:]))

	// Pre-counter block J0.
	var j0 [blockSize]byte
	if len(iv) == 12 {
		copy(j0[:], iv)
		j0[blockSize-1] = 1
	} else {
		g := ghash{tab: c.hash.tab}
		g.write(iv)
		g.lengths(0, uint64(len(iv)))
		binary.BigEndian.PutUint64(j0[:8], g.y.hi)
		binary.BigEndian.PutUint64(j0[8:], g.y.lo)
	}
	block.Encrypt(c.tagMask[:], j0[:])
	c.reseed(inc32(j0))
	return c, nil
}

// inc32 increments the low 32 bits of a counter block, wrapping modulo
// 2^32 and leaving the upper 96 bits untouched.
func inc32(b [blockSize]byte) [blockSize]byte {
	binary.BigEndian.PutUint32(b[12:], binary.BigEndian.Uint32(b[12:])+1)
	return b
}

// reseed starts a CTR stream at counter. cipher.NewCTR carries into the
// upper 96 bits, so a segment ends where the low 32 bits would wrap.
func (c *core) reseed(counter [blockSize]byte) {
	c.counter = counter
	c.ctr = cipher.NewCTR(c.block, counter[:])
	c.left = (1<<32 - uint64(binary.BigEndian.Uint32(counter[12:]))) * blockSize
}

// xorKeyStream XORs buf in place with the counter-mode keystream.
func (c *core) xorKeyStream(buf []byte) {
	for len(buf) > 0 {
		if c.left == 0 {
			next := c.counter
			binary.BigEndian.PutUint32(next[12:], 0)
			c.reseed(next)
		}
		n := len(buf)
		if uint64(n) > c.left {
			n = int(c.left)
		}
		c.ctr.XORKeyStream(buf[:n], buf[:n])
		buf = buf[n:]
		c.left -= uint64(n)
	}
}

func (c *core) tag() []byte {
	c.hash.lengths(0, c.length)
	var s [blockSize]byte
	binary.BigEndian.PutUint64(s[:8], c.hash.y.hi)
	binary.BigEndian.PutUint64(s[8:], c.hash.y.lo)
	subtle.XORBytes(s[:], s[:], c.tagMask[:])
	return s[:]
}

// Sealer encrypts a message incrementally.
type Sealer struct {
	c *core
}

// NewSealer starts a message under block and iv.
func NewSealer(block cipher.Block, iv []byte) (*Sealer, error) {
	c, err := newCore(block, iv)
	if err != nil {
		return nil, err
	}
	return &Sealer{c: c}, nil
}

// Seal appends the encryption of plaintext to dst and returns the result.
func (s *Sealer) Seal(dst, plaintext []byte) []byte {
	n := len(dst)
	dst = append(dst, plaintext...)
	out := dst[n:]
	s.c.xorKeyStream(out)
	s.c.hash.write(out)
	s.c.length += uint64(len(plaintext))
	return dst
}

// Tag closes the message and returns its authentication tag. The Sealer
// must not be used afterwards.
func (s *Sealer) Tag() []byte {
	return s.c.tag()
}

// Opener decrypts a message incrementally. Plaintext is released before the
// tag is checked; callers must not trust it until Verify succeeds.
type Opener struct {
	c *core
}

// NewOpener starts decrypting a message sealed under block and iv.
func NewOpener(block cipher.Block, iv []byte) (*Opener, error) {
	c, err := newCore(block, iv)
	if err != nil {
		return nil, err
	}
	return &Opener{c: c}, nil
}

// Open appends the decryption of ciphertext (excluding the tag) to dst.
func (o *Opener) Open(dst, ciphertext []byte) []byte {
	o.c.hash.write(ciphertext)
	o.c.length += uint64(len(ciphertext))
	n := len(dst)
	dst = append(dst, ciphertext...)
	o.c.xorKeyStream(dst[n:])
	return dst
}

// Verify closes the message and compares its tag with tag in constant time.
func (o *Opener) Verify(tag []byte) error {
	if len(tag) != TagSize || subtle.ConstantTimeCompare(o.c.tag(), tag) != 1 {
		return ErrAuth
	}
	return nil
}
