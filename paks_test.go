/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb  6 10:30:41 2019 mstenber
 * Last modified: Fri Mar  8 17:02:19 2019 mstenber
 * Edit time:     44 min
 *
 */

package paks

import (
	"testing"

	"github.com/stvp/assert"
)

func TestParseKey(t *testing.T) {
	t.Parallel()
	key, err := ParseKey("0")
	assert.Nil(t, err)
	assert.Equal(t, key, Key{})

	key, err = ParseKey("0d2a000000000000000000000000ffee")
	assert.Nil(t, err)
	assert.Equal(t, key[0], byte(0x0d))
	assert.Equal(t, key[1], byte(0x2a))
	assert.Equal(t, key[15], byte(0xee))

	_, err = ParseKey("abcd")
	assert.NotNil(t, err)
	_, err = ParseKey("zz2a000000000000000000000000ffee")
	assert.NotNil(t, err)
}

func TestBlockHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, BlocksForBytes(0), uint64(0))
	assert.Equal(t, BlocksForBytes(1), uint64(1))
	assert.Equal(t, BlocksForBytes(16), uint64(1))
	assert.Equal(t, BlocksForBytes(17), uint64(2))
	assert.Equal(t, BlocksForBytes(65), uint64(5))

	blocks := BytesToBlocks([]byte{1, 2, 3})
	assert.Equal(t, len(blocks), 1)
	assert.Equal(t, blocks[0], Block{1, 2, 3})
	// zero padded tail
	b := BlocksToBytes(blocks)
	assert.Equal(t, len(b), BlockSize)
	assert.Equal(t, b[3], byte(0))

	assert.Equal(t, len(BytesToBlocks(nil)), 0)
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()
	h := Header{
		Version:        Version,
		Directory:      Section{Start: 9, Blocks: 2, Nonce: 12345, Mac: Block{1, 2}},
		DirectoryBytes: 30,
	}
	blocks := h.Marshal()
	assert.Equal(t, len(blocks), HeaderBlocks)
	assert.Equal(t, blocks[0][0], byte('P'))

	var parsed Header
	assert.Nil(t, parsed.Unmarshal(blocks))
	assert.Equal(t, parsed, h)
}

func TestHeaderBadInput(t *testing.T) {
	t.Parallel()
	h := Header{
		Version:        Version,
		Directory:      Section{Start: 9, Blocks: 2, Nonce: 1},
		DirectoryBytes: 30,
	}

	var parsed Header

	// bad magic
	blocks := h.Marshal()
	blocks[0][0] = 'Q'
	assert.Equal(t, parsed.Unmarshal(blocks), ErrBadHeader)

	// bad version
	blocks = h.Marshal()
	blocks[0][4] = 2
	assert.Equal(t, parsed.Unmarshal(blocks), ErrBadHeader)

	// blocks/bytes disagree
	h2 := h
	h2.DirectoryBytes = 100
	assert.Equal(t, parsed.Unmarshal(h2.Marshal()), ErrBadHeader)

	// directory overlapping the header
	h2 = h
	h2.Directory.Start = 1
	assert.Equal(t, parsed.Unmarshal(h2.Marshal()), ErrBadHeader)

	// short input
	assert.Equal(t, parsed.Unmarshal(blocks[:2]), ErrBadHeader)
}

func TestSection(t *testing.T) {
	t.Parallel()
	s := Section{Start: 4, Blocks: 5}
	assert.Equal(t, s.End(), uint64(9))
	assert.True(t, s.Contains(9))
	assert.True(t, !s.Contains(8))

	// overflow does not wrap into bounds
	s = Section{Start: ^uint64(0) - 1, Blocks: 4}
	assert.True(t, !s.Contains(100))
}
