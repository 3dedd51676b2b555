/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 15:40:02 2019 mstenber
 * Last modified: Fri Mar  8 16:11:45 2019 mstenber
 * Edit time:     88 min
 *
 */

package dir

import (
	"testing"

	paks "github.com/fingon/go-paks"
	"github.com/stvp/assert"
)

func TestCreateSimple(t *testing.T) {
	t.Parallel()
	root := NewRoot()
	f, err := root.CreateFile("stuff.txt")
	assert.Nil(t, err)
	assert.Equal(t, f.Name(), "stuff.txt")
	assert.Equal(t, f.Size, uint64(0))
	assert.Equal(t, f.Section, paks.Section{})

	// creating again returns the same node
	f2, err := root.CreateFile("stuff.txt")
	assert.Nil(t, err)
	assert.True(t, f == f2)
}

func TestCreateDirs(t *testing.T) {
	t.Parallel()
	root := NewRoot()
	_, err := root.CreateFile("A/FOO")
	assert.Nil(t, err)
	_, err = root.CreateFile("A/BAR")
	assert.Nil(t, err)

	a, err := root.Resolve("A")
	assert.Nil(t, err)
	d, ok := a.(*Dir)
	assert.True(t, ok)
	assert.Equal(t, len(d.Children()), 2)
	assert.Equal(t, d.Children()[0].Name(), "FOO")
	assert.Equal(t, d.Children()[1].Name(), "BAR")
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	root := NewRoot()
	_, err := root.CreateFile("a/b/x")
	assert.Nil(t, err)

	_, err = root.Resolve("a/b/y")
	assert.Equal(t, err, paks.ErrNotFound)
	_, err = root.Resolve("a/b/x/z")
	assert.Equal(t, err, paks.ErrNotADirectory)
	_, err = root.ResolveFile("a/b")
	assert.Equal(t, err, paks.ErrNotAFile)
	_, err = root.Resolve("")
	assert.Equal(t, err, paks.ErrNotFound)
	_, err = root.Resolve("/a")
	assert.Equal(t, err, paks.ErrNotFound)

	// creating over a directory fails
	_, err = root.CreateFile("a/b")
	assert.Equal(t, err, paks.ErrNotAFile)
	// and through a file fails
	_, err = root.CreateFile("a/b/x/z")
	assert.Equal(t, err, paks.ErrNotADirectory)
}

func TestDetachAttach(t *testing.T) {
	t.Parallel()
	root := NewRoot()
	_, err := root.CreateFile("d/e/f")
	assert.Nil(t, err)

	node, err := root.Detach("d/e/f")
	assert.Nil(t, err)
	assert.Equal(t, node.Name(), "f")
	_, err = root.Resolve("d/e/f")
	assert.Equal(t, err, paks.ErrNotFound)

	assert.Nil(t, root.Attach("g/h/f2", node))
	f, err := root.ResolveFile("g/h/f2")
	assert.Nil(t, err)
	assert.Equal(t, f.Name(), "f2")

	// attaching over an existing directory is refused
	_, err = root.CreateFile("g/h/sub/x")
	assert.Nil(t, err)
	other, err := root.Detach("g/h/f2")
	assert.Nil(t, err)
	assert.Equal(t, root.Attach("g/h/sub", other), paks.ErrAlreadyExists)

	// over an existing file it replaces
	_, err = root.CreateFile("g/h/plain")
	assert.Nil(t, err)
	assert.Nil(t, root.Attach("g/h/plain", other))
	f, err = root.ResolveFile("g/h/plain")
	assert.Nil(t, err)
	assert.True(t, f == other.(*File))
}

func TestWalkAndIter(t *testing.T) {
	t.Parallel()
	root := NewRoot()
	for _, p := range []string{"Foo/Bar", "Foo/Baz", "Sub/Dir/x", "File"} {
		_, err := root.CreateFile(p)
		assert.Nil(t, err)
	}

	expected := []string{"Foo", "Foo/Bar", "Foo/Baz", "Sub", "Sub/Dir", "Sub/Dir/x", "File"}

	var walked []string
	assert.Nil(t, root.Walk(func(path string, node Node) error {
		walked = append(walked, path)
		return nil
	}))
	assert.Equal(t, walked, expected)

	it := NewIter(root)
	var iterated []string
	for {
		path, _, ok := it.Next()
		if !ok {
			break
		}
		iterated = append(iterated, path)
	}
	assert.Equal(t, iterated, expected)

	// restartable
	it = NewIter(root)
	path, _, ok := it.Next()
	assert.True(t, ok)
	assert.Equal(t, path, "Foo")
}

func TestFormat(t *testing.T) {
	t.Parallel()
	root := NewRoot()
	// Mirrors of the shape documented in format.go
	_, err := root.CreateFile("Foo/Bar")
	assert.Nil(t, err)
	_, err = root.CreateFile("Foo/Baz")
	assert.Nil(t, err)
	_, err = root.CreateFile("Sub/Dir/tmp")
	assert.Nil(t, err)
	_, err = root.Detach("Sub/Dir/tmp")
	assert.Nil(t, err)
	_, err = root.CreateFile("File")
	assert.Nil(t, err)

	expected := "" +
		"./\n" +
		"+- Foo/\n" +
		"|  |  Bar\n" +
		"|  `  Baz\n" +
		"|  \n" +
		"+- Sub/\n" +
		"|  `- Dir/\n" +
		"|  \n" +
		"`  File\n"
	assert.Equal(t, Format(root, ".", &ASCII), expected)
}
