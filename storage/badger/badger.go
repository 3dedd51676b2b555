/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 09:05:33 2019 mstenber
 * Last modified: Wed Mar  6 11:12:40 2019 mstenber
 * Edit time:     66 min
 *
 */

package badger

import (
	"encoding/binary"

	"github.com/dgraph-io/badger"
	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/mlog"
	"github.com/fingon/go-paks/storage"
	"github.com/pkg/errors"
)

var lenKey = []byte("l")

// badgerStore keeps the archive in a badger database:
//
// - key 'b' + big-endian block index -> 16 byte block
// - key 'l' -> big-endian block count
type badgerStore struct {
	db     *badger.DB
	blocks uint64
}

var _ storage.Store = &badgerStore{}

// NewBadgerStore creates an uninitialized badger-backed store; Init
// opens the database under Config.Directory.
func NewBadgerStore() storage.Store {
	return &badgerStore{}
}

func blockKey(index uint64) []byte {
	k := make([]byte, 9)
	k[0] = 'b'
	binary.BigEndian.PutUint64(k[1:], index)
	return k
}

func (self *badgerStore) Init(config storage.Config) error {
	if config.Directory == "" {
		return errors.New("badger: missing Directory")
	}
	opts := badger.DefaultOptions
	opts.Dir = config.Directory
	opts.ValueDir = config.Directory
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrap(err, "badger.Open")
	}
	self.db = db
	if config.CreateEmpty {
		return self.setLen(0)
	}
	err = db.View(func(txn *badger.Txn) error {
		i, err := txn.Get(lenKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := i.ValueCopy(nil)
		if err != nil {
			return err
		}
		self.blocks = binary.BigEndian.Uint64(v)
		return nil
	})
	if err != nil {
		db.Close()
		return errors.Wrap(err, "badger: init")
	}
	mlog.Printf2("storage/badger", "bs.Init %s (%d blocks)", config.Directory, self.blocks)
	return nil
}

func (self *badgerStore) setLen(blocks uint64) error {
	err := self.db.Update(func(txn *badger.Txn) error {
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, blocks)
		return txn.Set(lenKey, v)
	})
	if err != nil {
		return errors.Wrap(err, "badger: set length")
	}
	self.blocks = blocks
	return nil
}

func (self *badgerStore) Len() uint64 {
	return self.blocks
}

func (self *badgerStore) ReadAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.blocks {
		return errors.Errorf("badger: read [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.blocks)
	}
	err := self.db.View(func(txn *badger.Txn) error {
		for i := range blocks {
			item, err := txn.Get(blockKey(index + uint64(i)))
			if err == badger.ErrKeyNotFound {
				// Unwritten blocks read as zero
				blocks[i] = paks.Block{}
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			blocks[i] = paks.Block{}
			copy(blocks[i][:], v)
		}
		return nil
	})
	return errors.Wrap(err, "badger: read")
}

func (self *badgerStore) write(index uint64, blocks []paks.Block) error {
	return self.db.Update(func(txn *badger.Txn) error {
		for i := range blocks {
			b := blocks[i]
			if err := txn.Set(blockKey(index+uint64(i)), b[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (self *badgerStore) WriteAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.blocks {
		return errors.Errorf("badger: write [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.blocks)
	}
	return errors.Wrap(self.write(index, blocks), "badger: write")
}

func (self *badgerStore) Append(blocks []paks.Block) (uint64, error) {
	index := self.blocks
	if err := self.write(index, blocks); err != nil {
		return 0, errors.Wrap(err, "badger: append")
	}
	return index, self.setLen(index + uint64(len(blocks)))
}

func (self *badgerStore) Truncate(blocks uint64) error {
	if blocks > self.blocks {
		return errors.Errorf("badger: truncate %d beyond length %d", blocks, self.blocks)
	}
	// Collect stale keys first, then delete; ReadAt never looks
	// past Len but there is no point in keeping them around.
	var stale [][]byte
	err := self.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(blockKey(blocks)); it.ValidForPrefix([]byte("b")); it.Next() {
			k := it.Item().KeyCopy(nil)
			stale = append(stale, k)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "badger: truncate scan")
	}
	err = self.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "badger: truncate")
	}
	return self.setLen(blocks)
}

func (self *badgerStore) Flush() error { return nil }

func (self *badgerStore) Close() error {
	return self.db.Close()
}
