/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb  4 10:31:02 2019 mstenber
 * Last modified: Mon Feb 11 09:12:44 2019 mstenber
 * Edit time:     18 min
 *
 */

package paks

import "github.com/pkg/errors"

// Error kinds surfaced by the editor and reader. I/O failures from
// the backing store are wrapped with pkg/errors; use errors.Cause to
// recover the kind.
var (
	// ErrBadHeader indicates a version mismatch or structurally
	// invalid header (usually a wrong key).
	ErrBadHeader = errors.New("paks: bad header")

	// ErrBadMac indicates MAC verification failed; wrong key or
	// tampered data.
	ErrBadMac = errors.New("paks: bad mac")

	// ErrBadDirectory indicates the directory TLV did not parse:
	// bad tag, length overflow, or duplicate sibling name.
	ErrBadDirectory = errors.New("paks: bad directory")

	// ErrNotFound indicates the path does not resolve.
	ErrNotFound = errors.New("paks: not found")

	// ErrNotAFile indicates a directory where a file was expected.
	ErrNotAFile = errors.New("paks: not a file")

	// ErrNotADirectory indicates a file where a directory was
	// expected (mid-path, or as a move/link destination parent).
	ErrNotADirectory = errors.New("paks: not a directory")

	// ErrAlreadyExists indicates a move destination that exists
	// and may not be overwritten.
	ErrAlreadyExists = errors.New("paks: already exists")

	// ErrClosed indicates an operation on a finished editor.
	ErrClosed = errors.New("paks: editor closed")
)
