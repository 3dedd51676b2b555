/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb  8 11:20:45 2019 mstenber
 * Last modified: Wed Mar  6 10:07:51 2019 mstenber
 * Edit time:     58 min
 *
 */

package file

import (
	"os"

	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/mlog"
	"github.com/fingon/go-paks/storage"
	"github.com/pkg/errors"
)

// fileStore wraps a seekable read/write file with block-aligned
// pread/pwrite. Writes go straight to the file; Flush syncs.
type fileStore struct {
	file   *os.File
	blocks uint64
}

var _ storage.Store = &fileStore{}

// NewFileStore creates an uninitialized file-backed store; Init
// opens (or creates) the archive at Config.Path.
func NewFileStore() storage.Store {
	return &fileStore{}
}

func (self *fileStore) Init(config storage.Config) error {
	if config.Path == "" {
		return errors.New("file: missing Path")
	}
	flags := os.O_RDWR | os.O_CREATE
	if config.CreateEmpty {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(config.Path, flags, 0600)
	if err != nil {
		return errors.Wrapf(err, "file: open %s", config.Path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.Wrap(err, "file: stat")
	}
	if fi.Size()%paks.BlockSize != 0 {
		f.Close()
		return errors.Errorf("file: %s size %d is not a multiple of the block size", config.Path, fi.Size())
	}
	mlog.Printf2("storage/file", "fs.Init %s (%d blocks)", config.Path, fi.Size()/paks.BlockSize)
	self.file = f
	self.blocks = uint64(fi.Size()) / paks.BlockSize
	return nil
}

func (self *fileStore) Len() uint64 {
	return self.blocks
}

func (self *fileStore) ReadAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.blocks {
		return errors.Errorf("file: read [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.blocks)
	}
	b := make([]byte, len(blocks)*paks.BlockSize)
	if _, err := self.file.ReadAt(b, int64(index)*paks.BlockSize); err != nil {
		return errors.Wrap(err, "file: read")
	}
	for i := range blocks {
		copy(blocks[i][:], b[i*paks.BlockSize:])
	}
	return nil
}

func (self *fileStore) WriteAt(index uint64, blocks []paks.Block) error {
	if index+uint64(len(blocks)) > self.blocks {
		return errors.Errorf("file: write [%d..%d) beyond length %d", index, index+uint64(len(blocks)), self.blocks)
	}
	return self.writeAt(index, blocks)
}

func (self *fileStore) writeAt(index uint64, blocks []paks.Block) error {
	if _, err := self.file.WriteAt(paks.BlocksToBytes(blocks), int64(index)*paks.BlockSize); err != nil {
		return errors.Wrap(err, "file: write")
	}
	return nil
}

func (self *fileStore) Append(blocks []paks.Block) (uint64, error) {
	index := self.blocks
	if err := self.writeAt(index, blocks); err != nil {
		return 0, err
	}
	self.blocks += uint64(len(blocks))
	return index, nil
}

func (self *fileStore) Truncate(blocks uint64) error {
	if blocks > self.blocks {
		return errors.Errorf("file: truncate %d beyond length %d", blocks, self.blocks)
	}
	if err := self.file.Truncate(int64(blocks) * paks.BlockSize); err != nil {
		return errors.Wrap(err, "file: truncate")
	}
	self.blocks = blocks
	return nil
}

func (self *fileStore) Flush() error {
	mlog.Printf2("storage/file", "fs.Flush")
	return errors.Wrap(self.file.Sync(), "file: sync")
}

func (self *fileStore) Close() error {
	return self.file.Close()
}
