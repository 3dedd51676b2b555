/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb  5 09:21:14 2019 mstenber
 * Last modified: Wed Feb 27 10:14:02 2019 mstenber
 * Edit time:     71 min
 *
 */

// speck implements the Speck128/128 block cipher: 16-byte blocks,
// 16-byte key, 32 rounds. Words are little-endian uint64; the low
// word of a block lives in bytes 0..8 and the high word in 8..16.
//
// The round function uses only rotates, xor and modular addition, so
// encryption is constant time with respect to the block contents.
package speck

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// BlockSize is the cipher block size in bytes.
	BlockSize = 16

	// KeySize is the key size in bytes.
	KeySize = 16

	rounds = 32
)

// Cipher holds the expanded round keys for one 128-bit key. It
// implements crypto/cipher.Block.
type Cipher struct {
	rk [rounds]uint64
}

// NewCipher expands the given 16-byte key into the 32 round keys.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, errors.Errorf("speck: invalid key size %d", len(key))
	}
	self := &Cipher{}
	k := binary.LittleEndian.Uint64(key[0:8])
	l := binary.LittleEndian.Uint64(key[8:16])
	for i := 0; i < rounds; i++ {
		self.rk[i] = k
		l = (bits.RotateLeft64(l, -8) + k) ^ uint64(i)
		k = bits.RotateLeft64(k, 3) ^ l
	}
	return self, nil
}

// BlockSize returns the cipher block size in bytes.
func (self *Cipher) BlockSize() int { return BlockSize }

// EncryptWords encrypts one block given as (high, low) words.
func (self *Cipher) EncryptWords(x, y uint64) (uint64, uint64) {
	for i := 0; i < rounds; i++ {
		x = (bits.RotateLeft64(x, -8) + y) ^ self.rk[i]
		y = bits.RotateLeft64(y, 3) ^ x
	}
	return x, y
}

// DecryptWords inverts EncryptWords.
func (self *Cipher) DecryptWords(x, y uint64) (uint64, uint64) {
	for i := rounds - 1; i >= 0; i-- {
		y = bits.RotateLeft64(y^x, -3)
		x = bits.RotateLeft64((x^self.rk[i])-y, 8)
	}
	return x, y
}

// Encrypt encrypts the 16-byte block src into dst. They may overlap.
func (self *Cipher) Encrypt(dst, src []byte) {
	y := binary.LittleEndian.Uint64(src[0:8])
	x := binary.LittleEndian.Uint64(src[8:16])
	x, y = self.EncryptWords(x, y)
	binary.LittleEndian.PutUint64(dst[0:8], y)
	binary.LittleEndian.PutUint64(dst[8:16], x)
}

// Decrypt decrypts the 16-byte block src into dst. They may overlap.
func (self *Cipher) Decrypt(dst, src []byte) {
	y := binary.LittleEndian.Uint64(src[0:8])
	x := binary.LittleEndian.Uint64(src[8:16])
	x, y = self.DecryptWords(x, y)
	binary.LittleEndian.PutUint64(dst[0:8], y)
	binary.LittleEndian.PutUint64(dst[8:16], x)
}
