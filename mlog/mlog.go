/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb  7 08:55:41 2019 mstenber
 * Last modified: Mon Mar  4 09:33:20 2019 mstenber
 * Edit time:     49 min
 *
 */

// mlog is maybe-log: a small wrapper around the standard log package
// that prints nothing unless enabled. Call sites pass a tag
// (conventionally "package/file"); the MLOG environment variable (or
// the -mlog flag) holds a regular expression selecting which tags
// print. Disabled tags cost one map lookup.
package mlog

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"sync"
)

var logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)

var flagPattern = flag.String("mlog", "", "Enable logging for tags matching the given regular expression")

var mutex sync.Mutex

// Guarded by mutex
var initialized bool
var patternRegexp *regexp.Regexp
var tag2Enabled map[string]bool

func initialize() {
	pattern := os.Getenv("MLOG")
	if *flagPattern != "" {
		pattern = *flagPattern
	}
	initializeWithPattern(pattern)
}

func initializeWithPattern(pattern string) {
	initialized = true
	tag2Enabled = make(map[string]bool)
	if pattern == "" {
		patternRegexp = nil
		return
	}
	patternRegexp = regexp.MustCompile(pattern)
}

// SetPattern overrides the environment-provided pattern by hand. The
// returned undo function restores the previous state.
func SetPattern(pattern string) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	old := ""
	if patternRegexp != nil {
		old = patternRegexp.String()
	}
	wasInitialized := initialized
	initializeWithPattern(pattern)
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		if wasInitialized {
			initializeWithPattern(old)
		} else {
			initialized = false
		}
	}
}

// SetLogger overrides where enabled output goes. The returned undo
// function restores the previous logger.
func SetLogger(l *log.Logger) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	oldLogger := logger
	logger = l
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = oldLogger
	}
}

func enabled(tag string) bool {
	if !initialized {
		initialize()
	}
	e, ok := tag2Enabled[tag]
	if !ok {
		e = patternRegexp != nil && patternRegexp.MatchString(tag)
		tag2Enabled[tag] = e
	}
	return e
}

// IsEnabled reports whether the tag would print at all.
func IsEnabled(tag string) bool {
	mutex.Lock()
	defer mutex.Unlock()
	return enabled(tag)
}

// Printf2 logs with the given tag if the tag is enabled.
func Printf2(tag, format string, args ...interface{}) {
	mutex.Lock()
	defer mutex.Unlock()
	if !enabled(tag) {
		return
	}
	logger.Printf("%s %s", tag, fmt.Sprintf(format, args...))
}
