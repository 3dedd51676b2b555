/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar 13 09:12:40 2019 mstenber
 * Last modified: Thu Mar 14 11:48:02 2019 mstenber
 * Edit time:     96 min
 *
 */

// pakscmd is the command-line frontend: it creates, lists, edits,
// checks and compacts archives.
//
// Usage: pakscmd [flags] STORE KEY COMMAND [args]
//
// KEY is 32 hex digits, or 0 for the all-zero key, or - to derive
// the key from -password and -salt.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	paks "github.com/fingon/go-paks"
	"github.com/fingon/go-paks/dir"
	"github.com/fingon/go-paks/editor"
	"github.com/fingon/go-paks/reader"
	"github.com/fingon/go-paks/storage"
	"github.com/fingon/go-paks/storage/factory"
	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/pbkdf2"
)

const keyIterations = 4096

var commands = `
Commands:
  new                create an empty archive
  tree [-u]          print the tree (-u for unicode art)
  add PATH LOCAL     store LOCAL's contents as PATH
  copy PATH LOCAL    extract PATH into LOCAL
  cat PATH           write PATH's contents to stdout
  link FROM TO       add another name for FROM's data
  rm PATH...         remove files or directory trees
  mv SRC DST         rename a file or directory tree
  fsck               verify every file, list the broken ones
  gc                 drop unreachable data and compact
`

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n\n%s [flags] STORE KEY COMMAND [args]\n%s\n",
			os.Args[0], commands)
		flag.PrintDefaults()
	}
	password := flag.String("password", "", "Password to derive the key from (KEY = -)")
	salt := flag.String("salt", "salt", "Salt for key derivation")
	backendp := flag.String("backend", "file",
		fmt.Sprintf("Backend to use (possible: %v)", factory.List()))
	flag.Parse()

	if flag.NArg() < 3 {
		flag.Usage()
		os.Exit(1)
	}
	store := flag.Arg(0)
	key, err := parseKey(flag.Arg(1), *password, *salt)
	if err == nil {
		err = run(*backendp, store, key, flag.Args()[2:])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}

func parseKey(arg, password, salt string) (key paks.Key, err error) {
	if arg == "-" {
		copy(key[:], pbkdf2.Key([]byte(password), []byte(salt),
			keyIterations, len(key), sha256.New))
		return
	}
	return paks.ParseKey(arg)
}

func openStore(backend, path string, createEmpty bool) (storage.Store, error) {
	return factory.New(backend, storage.Config{
		Path: path, Directory: path, CreateEmpty: createEmpty})
}

// edit opens the store for editing, applies fn and finishes.
func edit(backend, path string, key paks.Key, fn func(e *editor.Editor) error) error {
	st, err := openStore(backend, path, false)
	if err != nil {
		return err
	}
	defer st.Close()
	e, err := editor.Open(st, key)
	if err != nil {
		return err
	}
	if err = fn(e); err != nil {
		return err
	}
	_, err = e.Finish(key)
	return err
}

// view opens the store read-only and applies fn.
func view(backend, path string, key paks.Key, fn func(r *reader.Reader) error) error {
	st, err := openStore(backend, path, false)
	if err != nil {
		return err
	}
	defer st.Close()
	r, err := reader.Open(st, key)
	if err != nil {
		return err
	}
	return fn(r)
}

func run(backend, path string, key paks.Key, args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "new":
		st, err := openStore(backend, path, true)
		if err != nil {
			return err
		}
		defer st.Close()
		e, err := editor.New(st, key)
		if err != nil {
			return err
		}
		_, err = e.Finish(key)
		return err

	case "tree":
		art := &dir.ASCII
		if len(args) > 0 && args[0] == "-u" {
			art = &dir.Unicode
		}
		return view(backend, path, key, func(r *reader.Reader) error {
			fmt.Print(dir.Format(r.Tree(), path, art))
			return nil
		})

	case "add":
		if len(args) != 2 {
			return fmt.Errorf("add wants PATH LOCAL")
		}
		data, err := ioutil.ReadFile(args[1])
		if err != nil {
			return err
		}
		return edit(backend, path, key, func(e *editor.Editor) error {
			_, err := e.CreateFile(args[0], data, key)
			return err
		})

	case "copy":
		if len(args) != 2 {
			return fmt.Errorf("copy wants PATH LOCAL")
		}
		return view(backend, path, key, func(r *reader.Reader) error {
			data, err := r.Read(args[0], key)
			if err != nil {
				return err
			}
			return ioutil.WriteFile(args[1], data, 0644)
		})

	case "cat":
		if len(args) != 1 {
			return fmt.Errorf("cat wants PATH")
		}
		return view(backend, path, key, func(r *reader.Reader) error {
			data, err := r.Read(args[0], key)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		})

	case "link":
		if len(args) != 2 {
			return fmt.Errorf("link wants FROM TO")
		}
		return edit(backend, path, key, func(e *editor.Editor) error {
			return e.Link(args[0], args[1])
		})

	case "rm":
		if len(args) < 1 {
			return fmt.Errorf("rm wants PATH...")
		}
		return edit(backend, path, key, func(e *editor.Editor) error {
			for _, p := range args {
				if err := e.Remove(p); err != nil {
					return err
				}
			}
			return nil
		})

	case "mv":
		if len(args) != 2 {
			return fmt.Errorf("mv wants SRC DST")
		}
		return edit(backend, path, key, func(e *editor.Editor) error {
			return e.Move(args[0], args[1])
		})

	case "fsck":
		return view(backend, path, key, func(r *reader.Reader) error {
			bad, err := r.Fsck(key)
			if err != nil {
				return err
			}
			for _, p := range bad {
				fmt.Println(p)
			}
			if len(bad) > 0 {
				return fmt.Errorf("%d broken file(s)", len(bad))
			}
			return nil
		})

	case "gc":
		return edit(backend, path, key, func(e *editor.Editor) error {
			return e.Gc(key)
		})
	}
	return fmt.Errorf("unknown command %q", cmd)
}
