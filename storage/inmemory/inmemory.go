/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb  8 10:02:13 2019 mstenber
 * Last modified: Tue Mar  5 11:30:08 2019 mstenber
 * Edit time:     31 min
 *
 */

package inmemory

import (
	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/storage"
	"github.com/pkg/errors"
)

// inMemoryStore owns a growable block slice. It is the natural
// choice for building an archive that is written out elsewhere, and
// for tests.
type inMemoryStore struct {
	blocks []paks.Block
}

var _ storage.Store = &inMemoryStore{}

// NewInMemoryStore creates an empty memory-backed store.
func NewInMemoryStore() storage.Store {
	return &inMemoryStore{}
}

// FromBytes creates a memory-backed store holding a copy of the
// given archive bytes. The length must be a multiple of the block
// size.
func FromBytes(b []byte) (storage.Store, error) {
	if len(b)%paks.BlockSize != 0 {
		return nil, errors.Errorf("inmemory: %d bytes is not a multiple of the block size", len(b))
	}
	return &inMemoryStore{blocks: paks.BytesToBlocks(b)}, nil
}

// Bytes flattens the store contents; the finished archive.
func Bytes(s storage.Store) []byte {
	return paks.BlocksToBytes(s.(*inMemoryStore).blocks)
}

func (self *inMemoryStore) Init(config storage.Config) error {
	if config.CreateEmpty {
		self.blocks = nil
	}
	return nil
}

func (self *inMemoryStore) Len() uint64 {
	return uint64(len(self.blocks))
}

func (self *inMemoryStore) ReadAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.Len() {
		return errors.Errorf("inmemory: read [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.Len())
	}
	copy(blocks, self.blocks[index:])
	return nil
}

func (self *inMemoryStore) WriteAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.Len() {
		return errors.Errorf("inmemory: write [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.Len())
	}
	copy(self.blocks[index:], blocks)
	return nil
}

func (self *inMemoryStore) Append(blocks []paks.Block) (uint64, error) {
	index := self.Len()
	self.blocks = append(self.blocks, blocks...)
	return index, nil
}

func (self *inMemoryStore) Truncate(blocks uint64) error {
	if blocks > self.Len() {
		return errors.Errorf("inmemory: truncate %d beyond length %d", blocks, self.Len())
	}
	self.blocks = self.blocks[:blocks]
	return nil
}

func (self *inMemoryStore) Flush() error { return nil }

func (self *inMemoryStore) Close() error { return nil }
