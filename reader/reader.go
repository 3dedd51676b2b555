/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 18 09:14:55 2019 mstenber
 * Last modified: Mon Mar 11 10:52:07 2019 mstenber
 * Edit time:     118 min
 *
 */

// reader provides the read-only view over an archive: open
// (authenticating the directory), path reads with constant-time MAC
// verification, partial reads, iteration and fsck.
package reader

import (
	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/crypt"
	"github.com/fingon/go-paks/dir"
	"github.com/fingon/go-paks/mlog"
	"github.com/fingon/go-paks/storage"
	"github.com/fingon/go-paks/storage/inmemory"
	"github.com/pkg/errors"
)

// Reader is a read-only view over a block store. Multiple readers
// may share an immutable store; callers serialize access.
type Reader struct {
	store storage.Store
	root  *dir.Dir
}

// Load decrypts the header and directory from a store, returning the
// parsed header and tree. The editor uses this too.
//
// Wrong version or clobbered header is ErrBadHeader; a directory
// range outside the store is ErrBadDirectory; a directory MAC
// mismatch is ErrBadMac.
func Load(store storage.Store, key paks.Key) (header paks.Header, root *dir.Dir, err error) {
	c := crypt.NewCipher(key)
	if store.Len() < paks.HeaderBlocks {
		err = paks.ErrBadHeader
		return
	}
	headerBlocks := make([]paks.Block, paks.HeaderBlocks)
	if err = store.ReadAt(0, headerBlocks); err != nil {
		return
	}
	header, err = crypt.DecryptHeader(c, headerBlocks)
	if err != nil {
		return
	}
	if !header.Directory.Contains(store.Len()) {
		// The header is unauthenticated; a clobbered directory
		// location surfaces here rather than as a MAC failure.
		err = paks.ErrBadDirectory
		return
	}
	dirBlocks := make([]paks.Block, header.Directory.Blocks)
	if err = store.ReadAt(header.Directory.Start, dirBlocks); err != nil {
		return
	}
	if !crypt.DecryptSection(c, dirBlocks, &header.Directory) {
		err = paks.ErrBadMac
		return
	}
	root, err = dir.Unmarshal(paks.BlocksToBytes(dirBlocks)[:header.DirectoryBytes])
	if err != nil {
		return
	}
	mlog.Printf2("reader/reader", "r.Load ok, directory %d blocks at %d",
		header.Directory.Blocks, header.Directory.Start)
	return
}

// Open decrypts the header, parses the directory and verifies its
// MAC, returning a reader over the store.
func Open(store storage.Store, key paks.Key) (*Reader, error) {
	_, root, err := Load(store, key)
	if err != nil {
		return nil, err
	}
	return &Reader{store: store, root: root}, nil
}

// FromBytes opens a reader over an in-memory copy of the archive
// bytes. The length must be a multiple of the block size.
func FromBytes(b []byte, key paks.Key) (*Reader, error) {
	store, err := inmemory.FromBytes(b)
	if err != nil {
		return nil, errors.WithMessage(paks.ErrBadHeader, err.Error())
	}
	return Open(store, key)
}

// Tree returns the directory tree for inspection.
func (self *Reader) Tree() *dir.Dir {
	return self.root
}

// Iter starts a lazy depth-first iteration over all entries.
func (self *Reader) Iter() *dir.Iter {
	return dir.NewIter(self.root)
}

// ReadSection reads, authenticates and decrypts one section from a
// store. The MAC is computed over ciphertext and compared in
// constant time before anything is decrypted.
func ReadSection(store storage.Store, section *paks.Section, key paks.Key) ([]paks.Block, error) {
	if !section.Contains(store.Len()) {
		return nil, paks.ErrBadDirectory
	}
	blocks := make([]paks.Block, section.Blocks)
	if err := store.ReadAt(section.Start, blocks); err != nil {
		return nil, err
	}
	c := crypt.NewCipher(key)
	if !crypt.DecryptSection(c, blocks, section) {
		return nil, paks.ErrBadMac
	}
	return blocks, nil
}

// Read resolves a path and returns the file's plaintext.
func (self *Reader) Read(path string, key paks.Key) ([]byte, error) {
	f, err := self.root.ResolveFile(path)
	if err != nil {
		return nil, err
	}
	blocks, err := ReadSection(self.store, &f.Section, key)
	if err != nil {
		return nil, err
	}
	return paks.BlocksToBytes(blocks)[:f.Size], nil
}

// ReadAt fills dst with file contents starting at the given byte
// offset. The whole section is still read and authenticated; only
// the copy is partial.
func (self *Reader) ReadAt(path string, key paks.Key, offset uint64, dst []byte) error {
	f, err := self.root.ResolveFile(path)
	if err != nil {
		return err
	}
	if offset+uint64(len(dst)) < offset || offset+uint64(len(dst)) > f.Size {
		return errors.Errorf("reader: read [%d..%d) beyond size %d", offset, offset+uint64(len(dst)), f.Size)
	}
	blocks, err := ReadSection(self.store, &f.Section, key)
	if err != nil {
		return err
	}
	copy(dst, paks.BlocksToBytes(blocks)[offset:])
	return nil
}

// Fsck walks every file descriptor, bounds-checking its section and
// verifying its MAC, and returns the paths that fail.
func (self *Reader) Fsck(key paks.Key) (bad []string, err error) {
	c := crypt.NewCipher(key)
	err = self.root.Walk(func(path string, node dir.Node) error {
		f, ok := node.(*dir.File)
		if !ok {
			return nil
		}
		if !f.Section.Contains(self.store.Len()) {
			bad = append(bad, path)
			return nil
		}
		blocks := make([]paks.Block, f.Section.Blocks)
		if err := self.store.ReadAt(f.Section.Start, blocks); err != nil {
			return err
		}
		if !crypt.MacEqual(crypt.Mac(c, blocks), f.Section.Mac) {
			bad = append(bad, path)
		}
		return nil
	})
	return
}
