// Package mangle implements the legacy credential cipher: a Lucifer variant
// reduced to work on strings of at most 16 bytes and on 32-character hex
// digests.
//
// Every operation runs on its own copy of the substitution tables, so
// Cipher values are safe for concurrent use.
package mangle

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	bpb = 8

	// BlockSize is the plaintext block size in bytes.
	BlockSize = 16
	// HexBlockSize is the hex-encoded block size.
	HexBlockSize = 2 * BlockSize
)

var (
	ErrCrypto        = errors.New("mangle: crypto error")
	ErrInvalidHex    = fmt.Errorf("%w: invalid hex", ErrCrypto)
	ErrInvalidLength = fmt.Errorf("%w: invalid length", ErrCrypto)
)

var (
	diffusion = [bpb]int{7, 6, 2, 1, 5, 0, 3, 4}
	// inverse of the fixed permutation
	invPerm = [bpb]int{2, 5, 4, 0, 3, 1, 7, 6}
	sbox0   = [16]int{12, 15, 7, 10, 14, 13, 11, 0, 2, 6, 3, 1, 9, 4, 5, 8}
	sbox1   = [16]int{7, 2, 14, 9, 3, 11, 0, 4, 12, 13, 1, 10, 6, 15, 8, 5}

	// LegacyMix is the decipher mix table used by older client builds.
	LegacyMix = [bpb]int{10, 1, 13, 12, 4, 0, 11, 3}
)

// Cipher carries the mix table spliced into sbox1[4:12] before deciphering.
type Cipher struct {
	mix [bpb]int
}

// New returns a cipher whose mix table matches the substitution entries it
// overwrites, making Decrypt the inverse of Encrypt.
func New() Cipher {
	var c Cipher
	copy(c.mix[:], sbox1[4:12])
	return c
}

// NewLegacy returns a cipher using LegacyMix. Its Decrypt does not invert
// Encrypt.
func NewLegacy() Cipher {
	return Cipher{mix: LegacyMix}
}

func (c Cipher) WithMix(mix [bpb]int) Cipher {
	c.mix = mix
	return c
}

func (c Cipher) Mix() [bpb]int {
	return c.mix
}

var std = New()

// Encrypt mangles plain in independent 16-byte chunks and returns uppercase
// hex, 32 characters per chunk.
func Encrypt(plain, key []byte) []byte { return std.Encrypt(plain, key) }

// Decrypt reverses Encrypt for 32-character hex chunks. Trailing NUL bytes
// are stripped from the result, so a plaintext ending in 0x00 comes back
// shorter than it went in.
func Decrypt(cipherHex, key []byte) ([]byte, error) { return std.Decrypt(cipherHex, key) }

// DigestEncrypt mangles a 32-character hex digest.
func DigestEncrypt(digest, key []byte) ([]byte, error) { return std.DigestEncrypt(digest, key) }

// DigestDecrypt reverses DigestEncrypt.
func DigestDecrypt(digest, key []byte) ([]byte, error) { return std.DigestDecrypt(digest, key) }

func (c Cipher) Encrypt(plain, key []byte) []byte {
	out := make([]byte, 0, (len(plain)+BlockSize-1)/BlockSize*HexBlockSize)
	for off := 0; off < len(plain); off += BlockSize {
		end := min(off+BlockSize, len(plain))
		var src [BlockSize]byte
		copy(src[:], plain[off:end])
		enc := c.block(src, key, false)
		out = append(out, EncodeHex(enc[:])...)
	}
	return out
}

// Decrypt strips the zero padding of the final chunk, so plaintexts that end
// in NUL bytes do not survive a round trip.
func (c Cipher) Decrypt(cipherHex, key []byte) ([]byte, error) {
	if len(cipherHex)%HexBlockSize != 0 {
		return nil, fmt.Errorf("%w: %d hex chars is not a multiple of %d", ErrInvalidLength, len(cipherHex), HexBlockSize)
	}
	out := make([]byte, 0, len(cipherHex)/2)
	for off := 0; off < len(cipherHex); off += HexBlockSize {
		src, err := decodeBlock(cipherHex[off : off+HexBlockSize])
		if err != nil {
			return nil, err
		}
		dec := c.block(src, key, true)
		out = append(out, dec[:]...)
	}
	return bytes.TrimRight(out, "\x00"), nil
}

func (c Cipher) DigestEncrypt(digest, key []byte) ([]byte, error) {
	src, err := decodeBlock(digest)
	if err != nil {
		return nil, err
	}
	enc := c.block(src, key, false)
	return EncodeHex(enc[:]), nil
}

func (c Cipher) DigestDecrypt(digest, key []byte) ([]byte, error) {
	src, err := decodeBlock(digest)
	if err != nil {
		return nil, err
	}
	dec := c.block(src, key, true)
	return EncodeHex(dec[:]), nil
}

// Xor combines two 32-character hex values byte-wise.
func Xor(a, b []byte) ([]byte, error) {
	ab, err := decodeBlock(a)
	if err != nil {
		return nil, err
	}
	bb, err := decodeBlock(b)
	if err != nil {
		return nil, err
	}
	for i := range ab {
		ab[i] ^= bb[i]
	}
	return EncodeHex(ab[:]), nil
}

// DecodeHex accepts only [0-9A-Fa-f] in pairs.
func DecodeHex(src []byte) ([]byte, error) {
	out := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(out, src); err != nil {
		if errors.Is(err, hex.ErrLength) {
			return nil, fmt.Errorf("%w: odd hex length %d", ErrInvalidLength, len(src))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return out, nil
}

// EncodeHex returns uppercase hex, two digits per byte.
func EncodeHex(src []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(src)))
	hex.Encode(out, src)
	return bytes.ToUpper(out)
}

// MD5Hex returns the uppercase hex MD5 of the concatenated parts.
func MD5Hex(parts ...[]byte) []byte {
	h := md5.New()
	for _, p := range parts {
		h.Write(p)
	}
	return EncodeHex(h.Sum(nil))
}

func decodeBlock(src []byte) ([BlockSize]byte, error) {
	var out [BlockSize]byte
	if len(src) != HexBlockSize {
		return out, fmt.Errorf("%w: want %d hex chars, got %d", ErrInvalidLength, HexBlockSize, len(src))
	}
	raw, err := DecodeHex(src)
	if err != nil {
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}

// state holds one operation's tables and bit vectors.
type state struct {
	s0 [16]int
	s1 [16]int
	m  [128]int
	k  [128]int
}

func (c Cipher) block(src [BlockSize]byte, key []byte, decipher bool) [BlockSize]byte {
	st := state{s0: sbox0, s1: sbox1}
	if decipher {
		copy(st.s1[4:12], c.mix[:])
	}

	// key is zero padded or truncated to 16 bytes
	var kb [BlockSize]byte
	copy(kb[:], key)
	for i := 0; i < BlockSize; i++ {
		v := int(kb[i])
		s := int(src[i])
		for j := 0; j < bpb; j++ {
			st.k[bpb*i+j] = v & 1
			st.m[bpb*i+j] = s & 1
			v >>= 1
			s >>= 1
		}
	}

	st.rounds(decipher)

	var out [BlockSize]byte
	for i := 0; i < BlockSize; i++ {
		v := 0
		for j := bpb - 1; j >= 0; j-- {
			v = v<<1 + st.m[bpb*i+j]
		}
		out[i] = byte(v)
	}
	return out
}

func (st *state) rounds(decipher bool) {
	var tr [bpb]int
	h0, h1 := 0, 1

	// transfer control byte index; deciphering walks the schedule backwards
	tcb := 0
	if decipher {
		tcb = 8
	}

	for round := 0; round < 16; round++ {
		if decipher {
			tcb = (tcb + 1) & 0xf
		}
		ti := tcb
		for b := 0; b < 8; b++ {
			base := h1*64 + bpb*b
			lo := st.m[base+7]*8 + st.m[base+6]*4 + st.m[base+5]*2 + st.m[base+4]
			hi := st.m[base+3]*8 + st.m[base+2]*4 + st.m[base+1]*2 + st.m[base]

			kbit := st.k[bpb*ti+b]
			v := (st.s0[lo]+16*st.s1[hi])*(1-kbit) + (st.s0[hi]+16*st.s1[lo])*kbit
			for i := range tr {
				tr[i] = v & 1
				v >>= 1
			}

			for bit := 0; bit < bpb; bit++ {
				idx := (diffusion[bit] + b) & 7
				pos := h0*64 + bpb*idx + bit
				st.m[pos] = (st.m[pos] + st.k[bpb*tcb+invPerm[bit]] + tr[invPerm[bit]]) & 1
			}

			if b < 7 || decipher {
				tcb = (tcb + 1) & 0xf
			}
		}
		h0, h1 = h1, h0
	}

	// final swap
	for i := 0; i < 64; i++ {
		st.m[i], st.m[64+i] = st.m[64+i], st.m[i]
	}
}
