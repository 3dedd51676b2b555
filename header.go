/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb  4 11:15:40 2019 mstenber
 * Last modified: Tue Feb 26 09:58:21 2019 mstenber
 * Edit time:     44 min
 *
 */

package paks

import "encoding/binary"

// HeaderBlocks is the number of blocks the header occupies at the
// start of every archive. The listed fields need 56 bytes; four
// blocks (64 bytes) is the smallest multiple that fits them.
const HeaderBlocks = 4

// Version is the current format version.
const Version = 1

// Magic identifies the format in the decrypted header.
var Magic = [4]byte{'P', 'A', 'K', 'S'}

// HeaderNonce is the fixed, well-known CTR nonce for the header
// blocks. The header has no MAC of its own; a wrong key yields
// garbage that fails the magic check downstream.
const HeaderNonce = 0

// Header is the plaintext contents of blocks 0..HeaderBlocks. It
// records where the encrypted directory lives and how to
// authenticate it.
//
// Byte layout (all integers little-endian):
//
//	0..4    magic "PAKS"
//	4..8    version (u32)
//	8..16   directory start block (u64)
//	16..24  directory block count (u64)
//	24..32  directory byte length (u64)
//	32..40  directory nonce (u64)
//	40..56  directory MAC
//	56..64  zero padding
type Header struct {
	Version uint32

	// Directory locates and authenticates the encrypted TLV
	// stream. Directory.Blocks is derived from DirectoryBytes.
	Directory Section

	// DirectoryBytes is the TLV stream length in bytes, before
	// padding to a block boundary.
	DirectoryBytes uint64
}

// Marshal encodes the header into its HeaderBlocks plaintext blocks.
func (self *Header) Marshal() []Block {
	var b [HeaderBlocks * BlockSize]byte
	copy(b[0:4], Magic[:])
	binary.LittleEndian.PutUint32(b[4:8], self.Version)
	binary.LittleEndian.PutUint64(b[8:16], self.Directory.Start)
	binary.LittleEndian.PutUint64(b[16:24], self.Directory.Blocks)
	binary.LittleEndian.PutUint64(b[24:32], self.DirectoryBytes)
	binary.LittleEndian.PutUint64(b[32:40], self.Directory.Nonce)
	copy(b[40:56], self.Directory.Mac[:])
	return BytesToBlocks(b[:])
}

// Unmarshal decodes plaintext header blocks, validating magic,
// version and internal consistency. Anything off means the key was
// wrong or the header was clobbered; both are ErrBadHeader.
func (self *Header) Unmarshal(blocks []Block) error {
	if len(blocks) < HeaderBlocks {
		return ErrBadHeader
	}
	b := BlocksToBytes(blocks[:HeaderBlocks])
	if string(b[0:4]) != string(Magic[:]) {
		return ErrBadHeader
	}
	self.Version = binary.LittleEndian.Uint32(b[4:8])
	if self.Version != Version {
		return ErrBadHeader
	}
	self.Directory.Start = binary.LittleEndian.Uint64(b[8:16])
	self.Directory.Blocks = binary.LittleEndian.Uint64(b[16:24])
	self.DirectoryBytes = binary.LittleEndian.Uint64(b[24:32])
	self.Directory.Nonce = binary.LittleEndian.Uint64(b[32:40])
	copy(self.Directory.Mac[:], b[40:56])
	if self.Directory.Start < HeaderBlocks && self.Directory.Blocks > 0 {
		return ErrBadHeader
	}
	if BlocksForBytes(self.DirectoryBytes) != self.Directory.Blocks {
		return ErrBadHeader
	}
	return nil
}
