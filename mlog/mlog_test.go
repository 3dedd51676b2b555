/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb  7 09:40:10 2019 mstenber
 * Last modified: Thu Feb  7 09:52:33 2019 mstenber
 * Edit time:     11 min
 *
 */

package mlog

import (
	"bytes"
	"log"
	"testing"

	"github.com/stvp/assert"
)

func TestMlog(t *testing.T) {
	var buf bytes.Buffer
	undoLogger := SetLogger(log.New(&buf, "", 0))
	defer undoLogger()

	undo := SetPattern("^editor/")
	Printf2("storage/file", "should not appear %d", 1)
	assert.Equal(t, buf.Len(), 0)
	assert.True(t, !IsEnabled("storage/file"))

	Printf2("editor/editor", "should appear %d", 2)
	assert.True(t, IsEnabled("editor/editor"))
	assert.Equal(t, buf.String(), "editor/editor should appear 2\n")
	undo()

	buf.Reset()
	undo = SetPattern("")
	Printf2("editor/editor", "disabled again")
	assert.Equal(t, buf.Len(), 0)
	undo()
}
