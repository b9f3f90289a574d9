package state

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/vanderheijden86/orbview/pkg/metrics"
)

// Store holds the current State and where it persists. Updates replace the
// whole value. A Store belongs to one event loop and is not safe for
// concurrent use.
type Store struct {
	cur  State
	path string
}

// NewStore returns a store starting at initial. An empty dir disables
// persistence.
func NewStore(dir string, initial State) *Store {
	s := &Store{cur: initial}
	if dir != "" {
		s.path = filepath.Join(dir, FileName)
	}
	return s
}

// Path returns the state file path, or "" when persistence is disabled.
func (s *Store) Path() string { return s.path }

// Get returns the current state.
func (s *Store) Get() State { return s.cur }

// Set replaces the current state.
func (s *Store) Set(st State) { s.cur = st }

// Update replaces the current state with fn applied to it and returns the
// result.
func (s *Store) Update(fn func(State) State) State {
	s.cur = fn(s.cur)
	return s.cur
}

// Load merges the persisted fields from disk into the current state. A
// missing file is a first run. An unreadable or corrupt file is logged and
// the current state is kept.
func (s *Store) Load() State {
	if s.path == "" {
		return s.cur
	}
	p, err := ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("warning: invalid explorer state file, using defaults: %v", err)
		}
		return s.cur
	}
	loaded, err := FromPersisted(p, s.cur)
	if err != nil {
		log.Printf("warning: ignoring explorer state %s: %v", s.path, err)
		return s.cur
	}
	s.cur = loaded
	return s.cur
}

// Save writes the persisted fields of the current state. Failures are
// logged and returned; callers in the UI ignore the error.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	defer metrics.Timer(metrics.StateSave)()
	if err := WriteFile(s.path, ToPersisted(s.cur)); err != nil {
		log.Printf("warning: failed to save explorer state: %v", err)
		return err
	}
	return nil
}
