/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Created:       Fri Feb  8 09:17:26 2019 mstenber
 * Last modified: Tue Mar  5 11:21:44 2019 mstenber
 * Edit time:     64 min
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 */

// storage provides the block-addressed Store abstraction the editor
// and reader sit on: a mutable sequence of 16-byte blocks with
// append, read-at, write-at and truncate. Backends live in the
// subpackages (inmemory, file, bolt, badger) and are constructed by
// name via storage/factory.
package storage

import paks "github.com/fingon/go-paks"

// Config carries backend construction parameters. Not every backend
// uses every field.
type Config struct {
	// Path is the archive file location (file backend).
	Path string

	// Directory is where database backends keep their state
	// (bolt, badger).
	Directory string

	// CreateEmpty truncates any existing content at Init,
	// yielding a zero-length store.
	CreateEmpty bool
}

// Store is a mutable sequence of blocks. Single writer, exclusive
// access for the editor's lifetime; no concurrency guarantees.
type Store interface {
	// Init makes the instance actually useful.
	Init(config Config) error

	// Len returns the number of blocks.
	Len() uint64

	// ReadAt fills blocks from the store starting at index. The
	// full range must lie within Len().
	ReadAt(index uint64, blocks []paks.Block) error

	// WriteAt writes blocks starting at index. The full range
	// must lie within Len().
	WriteAt(index uint64, blocks []paks.Block) error

	// Append grows the store, returning the index of the first
	// appended block.
	Append(blocks []paks.Block) (uint64, error)

	// Truncate shrinks the store to the given block count.
	Truncate(blocks uint64) error

	// Flush makes prior writes durable (file-ish backends).
	Flush() error

	// Close releases the backend. Close does not Flush.
	Close() error
}
