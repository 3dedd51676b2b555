/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 11:40:19 2019 mstenber
 * Last modified: Wed Mar  6 11:30:56 2019 mstenber
 * Edit time:     22 min
 *
 */

package factory

import (
	"sort"

	"github.com/fingon/go-paks/mlog"
	"github.com/fingon/go-paks/storage"
	"github.com/fingon/go-paks/storage/badger"
	"github.com/fingon/go-paks/storage/bolt"
	"github.com/fingon/go-paks/storage/file"
	"github.com/fingon/go-paks/storage/inmemory"
	"github.com/pkg/errors"
)

type factoryCallback func() storage.Store

var storeFactories = map[string]factoryCallback{
	"inmemory": func() storage.Store {
		return inmemory.NewInMemoryStore()
	},
	"file": func() storage.Store {
		return file.NewFileStore()
	},
	"bolt": func() storage.Store {
		return bolt.NewBoltStore()
	},
	"badger": func() storage.Store {
		return badger.NewBadgerStore()
	}}

// List returns the known backend names.
func List() []string {
	keys := make([]string, 0, len(storeFactories))
	for k := range storeFactories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// New constructs and initializes the named backend.
func New(name string, config storage.Config) (storage.Store, error) {
	mlog.Printf2("storage/factory/factory", "f.New %v %v", name, config)
	cb := storeFactories[name]
	if cb == nil {
		return nil, errors.Errorf("factory: unknown backend %q (known: %v)", name, List())
	}
	s := cb()
	if err := s.Init(config); err != nil {
		return nil, err
	}
	return s, nil
}
