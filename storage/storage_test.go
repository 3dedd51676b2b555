/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 09:22:17 2019 mstenber
 * Last modified: Thu Mar  7 10:18:33 2019 mstenber
 * Edit time:     52 min
 *
 */

package storage_test

import (
	"io/ioutil"
	"os"
	"testing"

	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/storage"
	"github.com/fingon/go-paks/storage/factory"
	"github.com/fingon/go-paks/storage/inmemory"
	"github.com/stvp/assert"
)

func block(fill byte) paks.Block {
	var b paks.Block
	for i := range b {
		b[i] = fill
	}
	return b
}

// ProdStore exercises the Store contract on one backend.
func ProdStore(t *testing.T, s storage.Store) {
	assert.Equal(t, s.Len(), uint64(0))

	index, err := s.Append([]paks.Block{block(1), block(2), block(3)})
	assert.Nil(t, err)
	assert.Equal(t, index, uint64(0))
	assert.Equal(t, s.Len(), uint64(3))

	got := make([]paks.Block, 2)
	assert.Nil(t, s.ReadAt(1, got))
	assert.Equal(t, got, []paks.Block{block(2), block(3)})

	assert.Nil(t, s.WriteAt(1, []paks.Block{block(9)}))
	assert.Nil(t, s.ReadAt(1, got))
	assert.Equal(t, got, []paks.Block{block(9), block(3)})

	// ranges must lie within Len
	assert.NotNil(t, s.ReadAt(2, got))
	assert.NotNil(t, s.WriteAt(3, []paks.Block{block(0)}))

	index, err = s.Append([]paks.Block{block(4)})
	assert.Nil(t, err)
	assert.Equal(t, index, uint64(3))

	assert.NotNil(t, s.Truncate(5))
	assert.Nil(t, s.Truncate(2))
	assert.Equal(t, s.Len(), uint64(2))
	assert.NotNil(t, s.ReadAt(2, got[:1]))

	// appending after truncate reuses the indexes
	index, err = s.Append([]paks.Block{block(7)})
	assert.Nil(t, err)
	assert.Equal(t, index, uint64(2))
	assert.Nil(t, s.ReadAt(2, got[:1]))
	assert.Equal(t, got[0], block(7))

	assert.Nil(t, s.Flush())
}

// ProdPersistent additionally closes and reopens the backend.
func ProdPersistent(t *testing.T, name string, config storage.Config) {
	config.CreateEmpty = true
	s, err := factory.New(name, config)
	assert.Nil(t, err)
	ProdStore(t, s)
	assert.Nil(t, s.Close())

	config.CreateEmpty = false
	s, err = factory.New(name, config)
	assert.Nil(t, err)
	assert.Equal(t, s.Len(), uint64(3))
	got := make([]paks.Block, 1)
	assert.Nil(t, s.ReadAt(2, got))
	assert.Equal(t, got[0], block(7))
	assert.Nil(t, s.Close())
}

func TestInMemory(t *testing.T) {
	t.Parallel()
	ProdStore(t, inmemory.NewInMemoryStore())
}

func TestInMemoryBytes(t *testing.T) {
	t.Parallel()
	s, err := inmemory.FromBytes(make([]byte, 32))
	assert.Nil(t, err)
	assert.Equal(t, s.Len(), uint64(2))
	assert.Equal(t, len(inmemory.Bytes(s)), 32)

	_, err = inmemory.FromBytes(make([]byte, 17))
	assert.NotNil(t, err)
}

func TestFile(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "paks-storage-file")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)
	ProdPersistent(t, "file", storage.Config{Path: dir + "/test.paks"})
}

func TestBolt(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "paks-storage-bolt")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)
	ProdPersistent(t, "bolt", storage.Config{Directory: dir})
}

func TestBadger(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "paks-storage-badger")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)
	ProdPersistent(t, "badger", storage.Config{Directory: dir})
}
