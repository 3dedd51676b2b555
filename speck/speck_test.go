/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb  5 10:44:09 2019 mstenber
 * Last modified: Wed Feb 27 10:31:18 2019 mstenber
 * Edit time:     33 min
 *
 */

package speck

import (
	"encoding/binary"
	"testing"

	"github.com/stvp/assert"
)

// Test vector from the Speck paper (Speck128/128).
func TestVector(t *testing.T) {
	t.Parallel()
	key := make([]byte, KeySize)
	binary.LittleEndian.PutUint64(key[0:8], 0x0706050403020100)
	binary.LittleEndian.PutUint64(key[8:16], 0x0f0e0d0c0b0a0908)
	c, err := NewCipher(key)
	assert.Nil(t, err)

	x, y := c.EncryptWords(0x6c61766975716520, 0x7469206564616d20)
	assert.Equal(t, x, uint64(0xa65d985179783265))
	assert.Equal(t, y, uint64(0x7860fedf5c570d18))

	x, y = c.DecryptWords(x, y)
	assert.Equal(t, x, uint64(0x6c61766975716520))
	assert.Equal(t, y, uint64(0x7469206564616d20))
}

func TestBytesRoundTrip(t *testing.T) {
	t.Parallel()
	key := []byte("0123456789abcdef")
	c, err := NewCipher(key)
	assert.Nil(t, err)

	src := []byte("block cipher !!!")
	dst := make([]byte, BlockSize)
	c.Encrypt(dst, src)
	assert.True(t, string(dst) != string(src))

	back := make([]byte, BlockSize)
	c.Decrypt(back, dst)
	assert.Equal(t, string(back), string(src))

	// in-place works too
	c.Encrypt(dst, dst)
	c.Decrypt(dst, dst)
	c.Decrypt(dst, dst)
	assert.Equal(t, string(dst), string(src))
}

func TestBadKeySize(t *testing.T) {
	t.Parallel()
	_, err := NewCipher([]byte("too short"))
	assert.NotNil(t, err)
}
