/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 19 08:40:12 2019 mstenber
 * Last modified: Tue Mar 12 15:26:48 2019 mstenber
 * Edit time:     201 min
 *
 */

// editor mutates an archive in place: create (with mkdir -p and
// overwrite), link, remove, move, garbage collection and finish.
//
// Mutations take effect in call order. Data blocks are written to
// the store eagerly; the directory and header are only written by
// Finish, which is the single commit point. An editor dropped
// without Finish leaves the store's previously committed directory
// in place (unless Gc ran, which rewrites data blocks in place).
//
// Allocation is bump-append: new data regions always go to the end
// of the store. Remove only detaches descriptors; links may alias
// regions without refcounts, so space is reclaimed solely by Gc,
// which determines liveness by scanning.
package editor

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sort"

	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/crypt"
	"github.com/fingon/go-paks/dir"
	"github.com/fingon/go-paks/mlog"
	"github.com/fingon/go-paks/reader"
	"github.com/fingon/go-paks/storage"
	"github.com/fingon/go-paks/storage/inmemory"
	"github.com/pkg/errors"
)

// Editor holds exclusive access to its store for its lifetime.
type Editor struct {
	// Rand supplies nonces; defaults to crypto/rand.Reader.
	Rand io.Reader

	store  storage.Store
	root   *dir.Dir
	closed bool

	// nonces drawn this session, for per-session uniqueness
	nonces map[uint64]bool
}

// New creates an editor over an empty store, writing a valid empty
// archive (header only) immediately.
func New(store storage.Store, key paks.Key) (*Editor, error) {
	if store.Len() != 0 {
		return nil, errors.Errorf("editor: store not empty (%d blocks); use Open", store.Len())
	}
	self := &Editor{store: store, root: dir.NewRoot(), nonces: make(map[uint64]bool)}
	if _, err := store.Append(make([]paks.Block, paks.HeaderBlocks)); err != nil {
		return nil, err
	}
	nonce, err := self.nonce()
	if err != nil {
		return nil, err
	}
	if err := self.writeDirectory(key, nil, nonce); err != nil {
		return nil, err
	}
	if err := store.Flush(); err != nil {
		return nil, err
	}
	return self, nil
}

// Open parses an existing archive for editing. A wrong key usually
// surfaces as ErrBadHeader; tampering as ErrBadMac.
func Open(store storage.Store, key paks.Key) (*Editor, error) {
	_, root, err := reader.Load(store, key)
	if err != nil {
		return nil, err
	}
	return &Editor{store: store, root: root, nonces: make(map[uint64]bool)}, nil
}

// NewMemory creates an editor over a fresh in-memory store. The
// finished archive bytes come from Bytes.
func NewMemory(key paks.Key) (*Editor, error) {
	return New(inmemory.NewInMemoryStore(), key)
}

// FromBytes opens an in-memory editor over a copy of the archive
// bytes.
func FromBytes(b []byte, key paks.Key) (*Editor, error) {
	store, err := inmemory.FromBytes(b)
	if err != nil {
		return nil, errors.WithMessage(paks.ErrBadHeader, err.Error())
	}
	return Open(store, key)
}

// Store returns the underlying block store.
func (self *Editor) Store() storage.Store {
	return self.store
}

// Bytes flattens an in-memory editor's store; call after Finish to
// get the archive. Panics on other backends.
func (self *Editor) Bytes() []byte {
	return inmemory.Bytes(self.store)
}

// Root returns the in-memory directory tree, reflecting unfinished
// mutations.
func (self *Editor) Root() *dir.Dir {
	return self.root
}

func (self *Editor) nonce() (uint64, error) {
	r := self.Rand
	if r == nil {
		r = rand.Reader
	}
	var b [8]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, errors.Wrap(err, "editor: rng")
		}
		n := binary.LittleEndian.Uint64(b[:])
		if !self.nonces[n] {
			self.nonces[n] = true
			return n, nil
		}
	}
}

// CreateFile writes data as a new file at path, creating missing
// parent directories. An existing file at path is overwritten (its
// old data region becomes garbage until Gc); an existing directory
// is ErrNotAFile. Returns the new descriptor.
func (self *Editor) CreateFile(path string, data []byte, key paks.Key) (*dir.File, error) {
	if self.closed {
		return nil, paks.ErrClosed
	}
	// Validate before touching anything so a failure leaves no
	// half-created parents behind.
	if err := self.root.CheckCreateFile(path); err != nil {
		return nil, err
	}
	nonce, err := self.nonce()
	if err != nil {
		return nil, err
	}
	blocks := paks.BytesToBlocks(data)
	section := paks.Section{Start: self.store.Len(), Blocks: uint64(len(blocks)), Nonce: nonce}
	c := crypt.NewCipher(key)
	crypt.EncryptSection(c, blocks, &section)
	if _, err := self.store.Append(blocks); err != nil {
		return nil, err
	}
	f, err := self.root.CreateFile(path)
	if err != nil {
		return nil, err
	}
	f.Section = section
	f.Size = uint64(len(data))
	mlog.Printf2("editor/editor", "e.CreateFile %s (%d bytes at %d)", path, len(data), section.Start)
	return f, nil
}

// Link copies the file descriptor at from (data region, nonce and
// MAC included) to a new name. No data moves; both names reference
// the same encrypted blocks. Gc treats either reference as live.
func (self *Editor) Link(from, to string) error {
	if self.closed {
		return paks.ErrClosed
	}
	src, err := self.root.ResolveFile(from)
	if err != nil {
		return err
	}
	if err := self.root.CheckCreateFile(to); err != nil {
		return err
	}
	f, err := self.root.CreateFile(to)
	if err != nil {
		return err
	}
	f.Section = src.Section
	f.Size = src.Size
	mlog.Printf2("editor/editor", "e.Link %s -> %s", from, to)
	return nil
}

// Remove detaches the descriptor at path; directories detach
// recursively. Data regions stay in the store until Gc.
func (self *Editor) Remove(path string) error {
	if self.closed {
		return paks.ErrClosed
	}
	_, err := self.root.Detach(path)
	mlog.Printf2("editor/editor", "e.Remove %s: %v", path, err)
	return err
}

// Move detaches src and attaches it at dst, creating missing parent
// directories. An existing file at dst is overwritten; an existing
// directory is ErrAlreadyExists.
func (self *Editor) Move(src, dst string) error {
	if self.closed {
		return paks.ErrClosed
	}
	if _, err := self.root.Resolve(src); err != nil {
		return err
	}
	if err := self.root.CheckAttach(dst); err != nil {
		return err
	}
	node, err := self.root.Detach(src)
	if err != nil {
		return err
	}
	if err := self.root.Attach(dst, node); err != nil {
		// Cannot happen after CheckAttach; be loud if it does.
		return err
	}
	mlog.Printf2("editor/editor", "e.Move %s -> %s", src, dst)
	return nil
}

// Read reads a file back through the open editor, without
// finishing. The key need not be the one the editor was opened
// with; it must match the file's data.
func (self *Editor) Read(path string, key paks.Key) ([]byte, error) {
	if self.closed {
		return nil, paks.ErrClosed
	}
	f, err := self.root.ResolveFile(path)
	if err != nil {
		return nil, err
	}
	blocks, err := reader.ReadSection(self.store, &f.Section, key)
	if err != nil {
		return nil, err
	}
	return paks.BlocksToBytes(blocks)[:f.Size], nil
}

// region identifies one encrypted data run; linked files share one.
type region struct {
	start, blocks, nonce uint64
}

// Gc compacts the store: live data regions (those reachable from the
// current tree, links counted once) slide down toward the header and
// everything after them is truncated away. Nonces are preserved;
// moved ciphertext is re-encrypted for its new position and its MAC
// recomputed, with every aliased descriptor updated together.
//
// The committed directory region is garbage too after this; call
// Finish before dropping the editor or the store has a stale header.
func (self *Editor) Gc(key paks.Key) error {
	if self.closed {
		return paks.ErrClosed
	}
	live := make(map[region][]*dir.File)
	err := self.root.Walk(func(path string, node dir.Node) error {
		f, ok := node.(*dir.File)
		if !ok {
			return nil
		}
		if f.Section.Blocks == 0 {
			// An empty run owns no blocks; park it at a canonical
			// in-range position so truncation cannot strand its
			// start past the end of the store.
			f.Section.Start = paks.HeaderBlocks
			return nil
		}
		r := region{f.Section.Start, f.Section.Blocks, f.Section.Nonce}
		live[r] = append(live[r], f)
		return nil
	})
	if err != nil {
		return err
	}
	regions := make([]region, 0, len(live))
	for r := range live {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].start < regions[j].start
	})

	c := crypt.NewCipher(key)
	cursor := uint64(paks.HeaderBlocks)
	for _, r := range regions {
		if !live[r][0].Section.Contains(self.store.Len()) {
			return paks.ErrBadDirectory
		}
		if r.start != cursor {
			// Regions are processed in start order, so the target
			// range is already drained; buffering the region first
			// makes even an overlapping slide safe.
			blocks := make([]paks.Block, r.blocks)
			if err := self.store.ReadAt(r.start, blocks); err != nil {
				return err
			}
			// Verify before moving; relocating under a wrong key
			// would corrupt the data irrecoverably.
			old := live[r][0].Section
			if !crypt.DecryptSection(c, blocks, &old) {
				return paks.ErrBadMac
			}
			section := paks.Section{Start: cursor, Blocks: r.blocks, Nonce: r.nonce}
			crypt.EncryptSection(c, blocks, &section)
			if err := self.store.WriteAt(cursor, blocks); err != nil {
				return err
			}
			for _, f := range live[r] {
				f.Section = section
			}
		}
		cursor += r.blocks
	}
	mlog.Printf2("editor/editor", "e.Gc %d -> %d blocks", self.store.Len(), cursor)
	return self.store.Truncate(cursor)
}

// writeDirectory serializes, encrypts and appends the directory,
// then writes the header pointing at it.
func (self *Editor) writeDirectory(key paks.Key, data []byte, nonce uint64) error {
	c := crypt.NewCipher(key)
	dirBlocks := paks.BytesToBlocks(data)
	section := paks.Section{Start: self.store.Len(), Blocks: uint64(len(dirBlocks)), Nonce: nonce}
	crypt.EncryptSection(c, dirBlocks, &section)
	if len(dirBlocks) > 0 {
		if _, err := self.store.Append(dirBlocks); err != nil {
			return err
		}
	}
	header := paks.Header{Version: paks.Version, Directory: section, DirectoryBytes: uint64(len(data))}
	return self.store.WriteAt(0, crypt.EncryptHeader(c, &header))
}

// Finish serializes the directory under a fresh nonce, rewrites the
// header and flushes. It is the only exit from the editing session;
// afterwards every operation fails with ErrClosed. A failed Finish
// leaves the editor open for retry.
func (self *Editor) Finish(key paks.Key) (*dir.Dir, error) {
	if self.closed {
		return nil, paks.ErrClosed
	}
	nonce, err := self.nonce()
	if err != nil {
		return nil, err
	}
	if err := self.writeDirectory(key, dir.Marshal(self.root), nonce); err != nil {
		return nil, err
	}
	if err := self.store.Flush(); err != nil {
		return nil, err
	}
	self.closed = true
	mlog.Printf2("editor/editor", "e.Finish (%d blocks)", self.store.Len())
	return self.root, nil
}
