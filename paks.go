/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb  4 10:02:31 2019 mstenber
 * Last modified: Thu Feb 21 11:47:12 2019 mstenber
 * Edit time:     55 min
 *
 */

// go-paks implements the PAKS archive format: a lightweight,
// obfuscated, content-addressable archive. A single archive bundles
// named byte blobs in a hierarchical directory, with every byte on
// the backing store encrypted under a caller-supplied 128-bit key
// (Speck128/128 in CTR mode, CBC-MAC tag per file and directory).
//
// This package holds the shared primitives; the interesting bits live
// in the subpackages (speck, crypt, storage, dir, editor, reader).
package paks

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// BlockSize is the quantum of storage and encryption, in bytes. All
// offsets and lengths internal to the format are counted in blocks.
const BlockSize = 16

// Block is the fundamental 16-byte unit; every byte in an archive
// belongs to exactly one block.
type Block [BlockSize]byte

// Key is the 128-bit archive key.
type Key [16]byte

// ParseKey decodes a hex-encoded 128-bit key. As a convenience for
// the command line, "0" parses as the all-zeros key.
func ParseKey(s string) (key Key, err error) {
	if s == "0" {
		return
	}
	if len(s) != 2*len(key) {
		err = errors.Errorf("key must be %d hex characters, got %d", 2*len(key), len(s))
		return
	}
	_, err = hex.Decode(key[:], []byte(s))
	return
}

// BlocksForBytes returns the number of blocks needed to hold n bytes.
func BlocksForBytes(n uint64) uint64 {
	return (n + BlockSize - 1) / BlockSize
}

// BlocksToBytes flattens blocks into a contiguous byte slice.
func BlocksToBytes(blocks []Block) []byte {
	b := make([]byte, 0, len(blocks)*BlockSize)
	for i := range blocks {
		b = append(b, blocks[i][:]...)
	}
	return b
}

// BytesToBlocks copies bytes into freshly allocated blocks, zero
// padding the tail of the last block.
func BytesToBlocks(b []byte) []Block {
	blocks := make([]Block, BlocksForBytes(uint64(len(b))))
	for i := range blocks {
		copy(blocks[i][:], b[i*BlockSize:])
	}
	return blocks
}
