/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 08:50:29 2019 mstenber
 * Last modified: Fri Mar  8 13:26:10 2019 mstenber
 * Edit time:     131 min
 *
 */

// dir holds the in-memory directory model of an archive: a tree of
// named nodes, either files carrying a data section descriptor or
// subdirectories carrying children. Paths are /-separated UTF-8 with
// no leading slash; sibling names are unique. The tree serializes as
// a depth-first TLV stream (see tlv.go).
package dir

import (
	"strings"

	paks "github.com/fingon/go-paks"
	"github.com/pkg/errors"
)

// Names must fit the u16 length prefix of the TLV encoding.
const maxNameLen = 1<<16 - 1

// Node is a single named directory entry; either *File or *Dir.
type Node interface {
	Name() string
	setName(name string)
}

// File is a leaf node describing one data region.
type File struct {
	name string

	// Section locates and authenticates the encrypted data.
	Section paks.Section

	// Size is the plaintext byte length; at most Section.Blocks
	// full blocks, the tail of the last block is padding.
	Size uint64
}

// Name returns the file's name within its parent.
func (self *File) Name() string { return self.name }

func (self *File) setName(name string) { self.name = name }

// Dir is an interior node with an ordered child list. The root of an
// archive is an unnamed Dir.
type Dir struct {
	name     string
	children []Node
}

// NewRoot creates an empty unnamed root directory.
func NewRoot() *Dir {
	return &Dir{}
}

// Name returns the directory's name; empty for the root.
func (self *Dir) Name() string { return self.name }

func (self *Dir) setName(name string) { self.name = name }

// Children returns the ordered child list. Callers must not mutate.
func (self *Dir) Children() []Node { return self.children }

// Child returns the named child or nil.
func (self *Dir) Child(name string) Node {
	for _, c := range self.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (self *Dir) attachChild(n Node) {
	self.children = append(self.children, n)
}

func (self *Dir) replaceChild(old, n Node) {
	for i, c := range self.children {
		if c == old {
			self.children[i] = n
			return
		}
	}
}

func (self *Dir) detachChild(n Node) {
	for i, c := range self.children {
		if c == n {
			self.children = append(self.children[:i], self.children[i+1:]...)
			return
		}
	}
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLen || strings.ContainsRune(name, '/') {
		return errors.Errorf("dir: invalid name %q", name)
	}
	return nil
}

// SplitPath splits a path into its components, rejecting empty
// components (so also leading and trailing slashes).
func SplitPath(path string) ([]string, error) {
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if err := validateName(p); err != nil {
			return nil, errors.Wrapf(err, "dir: invalid path %q", path)
		}
	}
	return parts, nil
}

// Resolve traverses the tree component by component. Missing
// components yield ErrNotFound; a file mid-path yields
// ErrNotADirectory.
func (self *Dir) Resolve(path string) (Node, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return nil, paks.ErrNotFound
	}
	var node Node = self
	for _, p := range parts {
		d, ok := node.(*Dir)
		if !ok {
			return nil, paks.ErrNotADirectory
		}
		node = d.Child(p)
		if node == nil {
			return nil, paks.ErrNotFound
		}
	}
	return node, nil
}

// ResolveFile resolves the path and requires a file at the end.
func (self *Dir) ResolveFile(path string) (*File, error) {
	node, err := self.Resolve(path)
	if err != nil {
		return nil, err
	}
	f, ok := node.(*File)
	if !ok {
		return nil, paks.ErrNotAFile
	}
	return f, nil
}

// mkdirs walks to the parent of the last path component, creating
// intermediate directories, and returns (parent, leaf name).
func (self *Dir) mkdirs(parts []string) (*Dir, string, error) {
	d := self
	for _, p := range parts[:len(parts)-1] {
		child := d.Child(p)
		if child == nil {
			sub := &Dir{name: p}
			d.attachChild(sub)
			d = sub
			continue
		}
		sub, ok := child.(*Dir)
		if !ok {
			return nil, "", paks.ErrNotADirectory
		}
		d = sub
	}
	return d, parts[len(parts)-1], nil
}

// CreateFile returns the file node at path, creating it and any
// missing parent directories. An existing file is returned as is
// (the caller overwrites its descriptor); an existing directory is
// ErrNotAFile.
func (self *Dir) CreateFile(path string) (*File, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	parent, leaf, err := self.mkdirs(parts)
	if err != nil {
		return nil, err
	}
	child := parent.Child(leaf)
	if child == nil {
		f := &File{name: leaf}
		parent.attachChild(f)
		return f, nil
	}
	f, ok := child.(*File)
	if !ok {
		return nil, paks.ErrNotAFile
	}
	return f, nil
}

// CheckCreateFile reports whether CreateFile(path) would succeed,
// without creating anything.
func (self *Dir) CheckCreateFile(path string) error {
	parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	node := Node(self)
	for i, p := range parts {
		d, ok := node.(*Dir)
		if !ok {
			return paks.ErrNotADirectory
		}
		node = d.Child(p)
		if node == nil {
			// The rest of the path would be freshly created.
			return nil
		}
		if i == len(parts)-1 {
			if _, ok := node.(*File); !ok {
				return paks.ErrNotAFile
			}
		}
	}
	return nil
}

// CheckAttach reports whether Attach(path, ...) would succeed,
// without creating anything.
func (self *Dir) CheckAttach(path string) error {
	parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	node := Node(self)
	for i, p := range parts {
		d, ok := node.(*Dir)
		if !ok {
			return paks.ErrNotADirectory
		}
		node = d.Child(p)
		if node == nil {
			return nil
		}
		if i == len(parts)-1 {
			if _, ok := node.(*Dir); ok {
				return paks.ErrAlreadyExists
			}
		}
	}
	return nil
}

// Detach removes the node at path from its parent and returns it.
// Directories detach recursively (the subtree goes with the node).
func (self *Dir) Detach(path string) (Node, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return nil, paks.ErrNotFound
	}
	var parent *Dir = self
	for _, p := range parts[:len(parts)-1] {
		child, ok := parent.Child(p).(*Dir)
		if !ok {
			if parent.Child(p) == nil {
				return nil, paks.ErrNotFound
			}
			return nil, paks.ErrNotADirectory
		}
		parent = child
	}
	node := parent.Child(parts[len(parts)-1])
	if node == nil {
		return nil, paks.ErrNotFound
	}
	parent.detachChild(node)
	return node, nil
}

// Attach inserts node at path, creating missing parent directories
// and renaming the node to the last component. An existing file at
// the destination is replaced; an existing directory is
// ErrAlreadyExists.
func (self *Dir) Attach(path string, node Node) error {
	parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	parent, leaf, err := self.mkdirs(parts)
	if err != nil {
		return err
	}
	existing := parent.Child(leaf)
	if existing != nil {
		if _, ok := existing.(*Dir); ok {
			return paks.ErrAlreadyExists
		}
		node.setName(leaf)
		parent.replaceChild(existing, node)
		return nil
	}
	node.setName(leaf)
	parent.attachChild(node)
	return nil
}

// Walk visits every node depth-first in child order, passing the
// full path. Returning an error stops the walk.
func (self *Dir) Walk(fn func(path string, node Node) error) error {
	return walk(self, "", fn)
}

func walk(d *Dir, prefix string, fn func(path string, node Node) error) error {
	for _, c := range d.children {
		path := prefix + c.Name()
		if err := fn(path, c); err != nil {
			return err
		}
		if sub, ok := c.(*Dir); ok {
			if err := walk(sub, path+"/", fn); err != nil {
				return err
			}
		}
	}
	return nil
}
