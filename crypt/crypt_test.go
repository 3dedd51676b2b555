/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb  6 10:12:30 2019 mstenber
 * Last modified: Thu Feb 28 14:02:09 2019 mstenber
 * Edit time:     58 min
 *
 */

package crypt

import (
	"testing"

	paks "github.com/fingon/go-paks"
	"github.com/stvp/assert"
)

var testKey = paks.Key{13, 42}

func testBlocks(n int) []paks.Block {
	blocks := make([]paks.Block, n)
	for j := range blocks {
		for i := 0; i < paks.BlockSize; i++ {
			blocks[j][i] = byte(j + i)
		}
	}
	return blocks
}

func TestCtrRoundTrip(t *testing.T) {
	t.Parallel()
	c := NewCipher(testKey)
	blocks := testBlocks(5)
	orig := testBlocks(5)

	EncryptBlocks(c, 7, 100, blocks)
	assert.True(t, blocks[0] != orig[0])
	DecryptBlocks(c, 7, 100, blocks)
	assert.Equal(t, blocks, orig)
}

// The keystream depends on both the nonce and the block position.
func TestCtrPositionDependence(t *testing.T) {
	t.Parallel()
	c := NewCipher(testKey)

	a := testBlocks(1)
	b := testBlocks(1)
	EncryptBlocks(c, 7, 100, a)
	EncryptBlocks(c, 7, 101, b)
	assert.True(t, a[0] != b[0])

	b = testBlocks(1)
	EncryptBlocks(c, 8, 100, b)
	assert.True(t, a[0] != b[0])
}

func TestMac(t *testing.T) {
	t.Parallel()
	c := NewCipher(testKey)

	assert.Equal(t, Mac(c, nil), paks.Block{})

	blocks := testBlocks(3)
	mac := Mac(c, blocks)
	assert.Equal(t, mac, Mac(c, testBlocks(3)))

	// any bit flip changes the tag
	blocks[1][5] ^= 1
	assert.True(t, mac != Mac(c, blocks))

	// so does truncation
	assert.True(t, mac != Mac(c, blocks[:2]))
}

func TestSection(t *testing.T) {
	t.Parallel()
	c := NewCipher(testKey)
	blocks := testBlocks(4)
	orig := testBlocks(4)

	section := &paks.Section{Start: 10, Blocks: 4, Nonce: 42}
	EncryptSection(c, blocks, section)
	assert.True(t, section.Mac != paks.Block{})

	// tampering is detected without decrypting
	evil := make([]paks.Block, 4)
	copy(evil, blocks)
	evil[2][0] ^= 0x80
	assert.True(t, !DecryptSection(c, evil, section))

	assert.True(t, DecryptSection(c, blocks, section))
	assert.Equal(t, blocks, orig)
}

func TestHeader(t *testing.T) {
	t.Parallel()
	c := NewCipher(testKey)
	h := paks.Header{Version: paks.Version, DirectoryBytes: 17}
	h.Directory = paks.Section{Start: 20, Blocks: 2, Nonce: 3}

	blocks := EncryptHeader(c, &h)
	assert.Equal(t, len(blocks), paks.HeaderBlocks)

	h2, err := DecryptHeader(c, blocks)
	assert.Nil(t, err)
	assert.Equal(t, h2, h)

	// wrong key fails the magic check
	_, err = DecryptHeader(c, make([]paks.Block, paks.HeaderBlocks))
	assert.Equal(t, err, paks.ErrBadHeader)

	c2 := NewCipher(paks.Key{13, 43})
	_, err = DecryptHeader(c2, blocks)
	assert.Equal(t, err, paks.ErrBadHeader)
}
