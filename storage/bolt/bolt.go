/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 13:31:28 2019 mstenber
 * Last modified: Wed Mar  6 10:44:19 2019 mstenber
 * Edit time:     73 min
 *
 */

package bolt

import (
	"encoding/binary"
	"fmt"

	bbolt "github.com/coreos/bbolt"
	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/mlog"
	"github.com/fingon/go-paks/storage"
	"github.com/pkg/errors"
)

var blocksBucket = []byte("blocks")
var metaBucket = []byte("meta")
var lenKey = []byte("len")

// boltStore keeps the archive in a bbolt database:
//
// - blocks bucket: big-endian block index -> 16 byte block
// - meta bucket: "len" -> big-endian block count
//
// bbolt transactions are durable, so Flush is a no-op.
type boltStore struct {
	db     *bbolt.DB
	blocks uint64
}

var _ storage.Store = &boltStore{}

// NewBoltStore creates an uninitialized bbolt-backed store; Init
// opens the database under Config.Directory.
func NewBoltStore() storage.Store {
	return &boltStore{}
}

func blockKey(index uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, index)
	return k
}

func (self *boltStore) Init(config storage.Config) error {
	if config.Directory == "" {
		return errors.New("bolt: missing Directory")
	}
	db, err := bbolt.Open(fmt.Sprintf("%s/bbolt.db", config.Directory), 0600, nil)
	if err != nil {
		return errors.Wrap(err, "bbolt.Open")
	}
	self.db = db
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(metaBucket); err != nil {
			return err
		}
		if config.CreateEmpty {
			return tx.Bucket(metaBucket).Put(lenKey, blockKey(0))
		}
		if v := tx.Bucket(metaBucket).Get(lenKey); v != nil {
			self.blocks = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return errors.Wrap(err, "bolt: init")
	}
	if config.CreateEmpty {
		self.blocks = 0
	}
	mlog.Printf2("storage/bolt", "bs.Init %s (%d blocks)", config.Directory, self.blocks)
	return nil
}

func (self *boltStore) Len() uint64 {
	return self.blocks
}

func (self *boltStore) ReadAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.blocks {
		return errors.Errorf("bolt: read [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.blocks)
	}
	return self.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(blocksBucket)
		for i := range blocks {
			v := b.Get(blockKey(index + uint64(i)))
			// Unwritten blocks read as zero
			blocks[i] = paks.Block{}
			copy(blocks[i][:], v)
		}
		return nil
	})
}

func (self *boltStore) write(index uint64, blocks []paks.Block, newLen uint64) error {
	return self.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(blocksBucket)
		for i := range blocks {
			if err := b.Put(blockKey(index+uint64(i)), blocks[i][:]); err != nil {
				return err
			}
		}
		return tx.Bucket(metaBucket).Put(lenKey, blockKey(newLen))
	})
}

func (self *boltStore) WriteAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.blocks {
		return errors.Errorf("bolt: write [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.blocks)
	}
	return errors.Wrap(self.write(index, blocks, self.blocks), "bolt: write")
}

func (self *boltStore) Append(blocks []paks.Block) (uint64, error) {
	index := self.blocks
	if err := self.write(index, blocks, index+uint64(len(blocks))); err != nil {
		return 0, errors.Wrap(err, "bolt: append")
	}
	self.blocks += uint64(len(blocks))
	return index, nil
}

func (self *boltStore) Truncate(blocks uint64) error {
	if blocks > self.blocks {
		return errors.Errorf("bolt: truncate %d beyond length %d", blocks, self.blocks)
	}
	err := self.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket(blocksBucket).Cursor()
		for k, _ := c.Seek(blockKey(blocks)); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return tx.Bucket(metaBucket).Put(lenKey, blockKey(blocks))
	})
	if err != nil {
		return errors.Wrap(err, "bolt: truncate")
	}
	self.blocks = blocks
	return nil
}

func (self *boltStore) Flush() error { return nil }

func (self *boltStore) Close() error {
	return self.db.Close()
}
