/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb  6 09:02:55 2019 mstenber
 * Last modified: Thu Feb 28 13:40:37 2019 mstenber
 * Edit time:     102 min
 *
 */

// crypt is the crypto envelope around the speck primitive: CTR mode
// over runs of blocks addressed by (nonce, absolute block index), and
// CBC-MAC tags over ciphertext runs.
//
// The counter block for position i under nonce n has low word n^i
// and high word i; the mapping is injective in (n, i) and shared by
// the read and write paths. CBC-MAC chains from an all-zero tag, so
// an empty run has a zero tag. The MAC covers ciphertext, which
// means verification never needs to decrypt first.
package crypt

import (
	"crypto/subtle"
	"encoding/binary"
	"log"

	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/speck"
)

// NewCipher expands an archive key. Key expansion cannot fail for a
// well-formed Key, so this does not return an error.
func NewCipher(key paks.Key) *speck.Cipher {
	c, err := speck.NewCipher(key[:])
	if err != nil {
		log.Panic(err)
	}
	return c
}

// keystream returns the CTR keystream block for absolute block index
// i under the given nonce.
func keystream(c *speck.Cipher, nonce, i uint64) (b paks.Block) {
	x, y := c.EncryptWords(i, nonce^i)
	binary.LittleEndian.PutUint64(b[0:8], y)
	binary.LittleEndian.PutUint64(b[8:16], x)
	return
}

// EncryptBlocks XORs the CTR keystream into blocks in place. The
// first block sits at absolute index start. Decryption is the same
// operation; DecryptBlocks exists for readability at call sites.
func EncryptBlocks(c *speck.Cipher, nonce, start uint64, blocks []paks.Block) {
	for j := range blocks {
		ks := keystream(c, nonce, start+uint64(j))
		for i := 0; i < paks.BlockSize; i++ {
			blocks[j][i] ^= ks[i]
		}
	}
}

// DecryptBlocks is EncryptBlocks; CTR is symmetric.
func DecryptBlocks(c *speck.Cipher, nonce, start uint64, blocks []paks.Block) {
	EncryptBlocks(c, nonce, start, blocks)
}

// Mac computes the CBC-MAC tag over the given (ciphertext) blocks.
func Mac(c *speck.Cipher, blocks []paks.Block) paks.Block {
	var t paks.Block
	for j := range blocks {
		for i := 0; i < paks.BlockSize; i++ {
			t[i] ^= blocks[j][i]
		}
		c.Encrypt(t[:], t[:])
	}
	return t
}

// MacEqual compares two tags in constant time.
func MacEqual(a, b paks.Block) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// EncryptSection CTR-encrypts blocks in place at section.Start under
// section.Nonce and records the resulting MAC in the section.
func EncryptSection(c *speck.Cipher, blocks []paks.Block, section *paks.Section) {
	EncryptBlocks(c, section.Nonce, section.Start, blocks)
	section.Mac = Mac(c, blocks)
}

// DecryptSection verifies the section MAC over the ciphertext blocks
// and, only when it matches, decrypts them in place. Returns false
// on MAC mismatch, leaving the blocks encrypted.
func DecryptSection(c *speck.Cipher, blocks []paks.Block, section *paks.Section) bool {
	if !MacEqual(Mac(c, blocks), section.Mac) {
		return false
	}
	DecryptBlocks(c, section.Nonce, section.Start, blocks)
	return true
}

// EncryptHeader marshals and encrypts the header into its on-disk
// blocks (fixed nonce, block index 0).
func EncryptHeader(c *speck.Cipher, header *paks.Header) []paks.Block {
	blocks := header.Marshal()
	EncryptBlocks(c, paks.HeaderNonce, 0, blocks)
	return blocks
}

// DecryptHeader decrypts and decodes the archive header from the
// first HeaderBlocks blocks. A wrong key surfaces as ErrBadHeader.
func DecryptHeader(c *speck.Cipher, blocks []paks.Block) (header paks.Header, err error) {
	if len(blocks) < paks.HeaderBlocks {
		err = paks.ErrBadHeader
		return
	}
	plain := make([]paks.Block, paks.HeaderBlocks)
	copy(plain, blocks[:paks.HeaderBlocks])
	DecryptBlocks(c, paks.HeaderNonce, 0, plain)
	err = header.Unmarshal(plain)
	return
}
