/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb 15 10:12:33 2019 mstenber
 * Last modified: Fri Mar  8 15:02:18 2019 mstenber
 * Edit time:     47 min
 *
 */

package dir

import (
	"bytes"
	"fmt"
)

// TreeArt selects the strings used to draw the directory tree.
type TreeArt struct {
	// Dir and LastDir prefix a (non-)final subdirectory entry.
	Dir, LastDir string

	// File and LastFile prefix a (non-)final file entry.
	File, LastFile string

	// Vert continues a parent's edge; Space indents under a final
	// entry.
	Vert, Space string
}

// ASCII draws with plain characters.
var ASCII = TreeArt{
	Dir: "+- ", LastDir: "`- ",
	File: "|  ", LastFile: "`  ",
	Vert: "|  ", Space: "   ",
}

// Unicode draws with box-drawing characters.
var Unicode = TreeArt{
	Dir: "├─ ", LastDir: "└─ ",
	File: "│  ", LastFile: "└  ",
	Vert: "│  ", Space: "   ",
}

// Format renders the tree for human inspection. rootName is
// displayed for the unnamed root (conventionally ".").
func Format(root *Dir, rootName string, art *TreeArt) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s/\n", rootName)
	formatChildren(&buf, root, "", art)
	return buf.String()
}

func formatChildren(buf *bytes.Buffer, d *Dir, prefix string, art *TreeArt) {
	for i, c := range d.children {
		last := i == len(d.children)-1
		switch n := c.(type) {
		case *Dir:
			if last {
				fmt.Fprintf(buf, "%s%s%s/\n", prefix, art.LastDir, n.name)
				formatChildren(buf, n, prefix+art.Space, art)
			} else {
				fmt.Fprintf(buf, "%s%s%s/\n", prefix, art.Dir, n.name)
				formatChildren(buf, n, prefix+art.Vert, art)
				fmt.Fprintf(buf, "%s%s\n", prefix, art.Vert)
			}
		case *File:
			if last {
				fmt.Fprintf(buf, "%s%s%s\n", prefix, art.LastFile, n.name)
			} else {
				fmt.Fprintf(buf, "%s%s%s\n", prefix, art.File, n.name)
			}
		}
	}
}
