/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb  4 10:48:19 2019 mstenber
 * Last modified: Fri Feb 22 14:03:55 2019 mstenber
 * Edit time:     27 min
 *
 */

package paks

// Section describes one contiguous run of encrypted blocks: a file's
// data region, or the serialized directory. The MAC covers the
// ciphertext blocks, so it can be verified without decrypting.
type Section struct {
	// Start is the absolute block index of the first block.
	Start uint64

	// Blocks is the length of the run, in blocks.
	Blocks uint64

	// Nonce parametrizes the CTR keystream for this run.
	Nonce uint64

	// Mac is the CBC-MAC tag over the ciphertext blocks.
	Mac Block
}

// End returns the block index one past the section.
func (self *Section) End() uint64 {
	return self.Start + self.Blocks
}

// Contains reports whether the section lies entirely within a store
// of the given block length, guarding against index overflow.
func (self *Section) Contains(storeBlocks uint64) bool {
	end := self.Start + self.Blocks
	return end >= self.Start && end <= storeBlocks
}

// SameRegion reports whether two sections alias the same encrypted
// data region. Linked descriptors compare equal under this.
func (self *Section) SameRegion(other *Section) bool {
	return self.Start == other.Start && self.Blocks == other.Blocks && self.Nonce == other.Nonce
}
