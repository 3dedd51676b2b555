/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 13:05:52 2019 mstenber
 * Last modified: Fri Mar  8 14:40:27 2019 mstenber
 * Edit time:     96 min
 *
 */

package dir

import (
	"bytes"
	"encoding/binary"

	paks "github.com/fingon/go-paks"
)

// TLV tags. Each descriptor is tag (u8), name length (u16 LE), name
// bytes, then the tag-specific fixed fields, all little-endian.
//
// FILE: start block u64, block count u64, byte length u64, nonce
// u64, MAC 16 bytes. DIR: child count u64; the next count
// descriptors in stream order are its children, recursively. The
// root's children run until the stream is consumed.
const (
	TagFile = 1
	TagDir  = 2
)

// Marshal serializes the tree below root as the plaintext TLV
// stream. Node names are validated on insertion, so this cannot
// fail.
func Marshal(root *Dir) []byte {
	var buf bytes.Buffer
	marshalChildren(&buf, root)
	return buf.Bytes()
}

func marshalChildren(buf *bytes.Buffer, d *Dir) {
	for _, c := range d.children {
		switch n := c.(type) {
		case *File:
			writeHead(buf, TagFile, n.name)
			writeUint64(buf, n.Section.Start)
			writeUint64(buf, n.Section.Blocks)
			writeUint64(buf, n.Size)
			writeUint64(buf, n.Section.Nonce)
			buf.Write(n.Section.Mac[:])
		case *Dir:
			writeHead(buf, TagDir, n.name)
			writeUint64(buf, uint64(len(n.children)))
			marshalChildren(buf, n)
		}
	}
}

func writeHead(buf *bytes.Buffer, tag byte, name string) {
	buf.WriteByte(tag)
	var nl [2]byte
	binary.LittleEndian.PutUint16(nl[:], uint16(len(name)))
	buf.Write(nl[:])
	buf.WriteString(name)
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

type tlvReader struct {
	data []byte
	pos  int
}

func (self *tlvReader) remaining() int {
	return len(self.data) - self.pos
}

func (self *tlvReader) bytes(n int) ([]byte, bool) {
	if self.remaining() < n {
		return nil, false
	}
	b := self.data[self.pos : self.pos+n]
	self.pos += n
	return b, true
}

// Unmarshal parses a plaintext TLV stream back into a tree. Any
// structural problem (bad tag, short stream, bad name, duplicate
// sibling, overlong child count) is ErrBadDirectory.
func Unmarshal(data []byte) (*Dir, error) {
	r := &tlvReader{data: data}
	root := NewRoot()
	for r.remaining() > 0 {
		if err := parseNode(r, root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Smallest possible descriptor: tag, zero name length and a child
// count. Used to bound claimed child counts before recursing.
const minDescriptorLen = 1 + 2 + 8

func parseNode(r *tlvReader, parent *Dir) error {
	head, ok := r.bytes(3)
	if !ok {
		return paks.ErrBadDirectory
	}
	tag := head[0]
	nameLen := int(binary.LittleEndian.Uint16(head[1:3]))
	nameBytes, ok := r.bytes(nameLen)
	if !ok {
		return paks.ErrBadDirectory
	}
	name := string(nameBytes)
	if validateName(name) != nil {
		return paks.ErrBadDirectory
	}
	if parent.Child(name) != nil {
		// Duplicate sibling names would make path resolution
		// nondeterministic; reject at parse time.
		return paks.ErrBadDirectory
	}

	switch tag {
	case TagFile:
		fields, ok := r.bytes(8 + 8 + 8 + 8 + 16)
		if !ok {
			return paks.ErrBadDirectory
		}
		f := &File{name: name}
		f.Section.Start = binary.LittleEndian.Uint64(fields[0:8])
		f.Section.Blocks = binary.LittleEndian.Uint64(fields[8:16])
		f.Size = binary.LittleEndian.Uint64(fields[16:24])
		f.Section.Nonce = binary.LittleEndian.Uint64(fields[24:32])
		copy(f.Section.Mac[:], fields[32:48])
		if paks.BlocksForBytes(f.Size) != f.Section.Blocks {
			return paks.ErrBadDirectory
		}
		parent.attachChild(f)
		return nil

	case TagDir:
		countBytes, ok := r.bytes(8)
		if !ok {
			return paks.ErrBadDirectory
		}
		count := binary.LittleEndian.Uint64(countBytes)
		if count > uint64(r.remaining()/minDescriptorLen) {
			return paks.ErrBadDirectory
		}
		d := &Dir{name: name}
		parent.attachChild(d)
		for i := uint64(0); i < count; i++ {
			if err := parseNode(r, d); err != nil {
				return err
			}
		}
		return nil

	default:
		return paks.ErrBadDirectory
	}
}
