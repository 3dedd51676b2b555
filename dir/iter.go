/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb 15 11:31:09 2019 mstenber
 * Last modified: Fri Feb 15 11:58:44 2019 mstenber
 * Edit time:     19 min
 *
 */

package dir

// Iter is a lazy depth-first iterator over a tree. It is finite and
// restartable (make a new one); mutating the tree mid-iteration is
// not supported.
type Iter struct {
	stack []iterFrame
}

type iterFrame struct {
	prefix   string
	children []Node
	next     int
}

// NewIter starts a depth-first iteration below root.
func NewIter(root *Dir) *Iter {
	return &Iter{stack: []iterFrame{{children: root.children}}}
}

// Next returns the next (path, node) pair, or ok == false when the
// iteration is done.
func (self *Iter) Next() (path string, node Node, ok bool) {
	for len(self.stack) > 0 {
		top := &self.stack[len(self.stack)-1]
		if top.next >= len(top.children) {
			self.stack = self.stack[:len(self.stack)-1]
			continue
		}
		node = top.children[top.next]
		top.next++
		path = top.prefix + node.Name()
		if d, isDir := node.(*Dir); isDir {
			self.stack = append(self.stack, iterFrame{prefix: path + "/", children: d.children})
		}
		return path, node, true
	}
	return "", nil, false
}
