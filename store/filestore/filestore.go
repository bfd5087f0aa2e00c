// Package filestore keeps each token slot in its own file under a directory.
// Other processes sharing the directory are observed through fsnotify, so a
// logout in one terminal tears down the sessions of the others.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ session.Store = (*Store)(nil)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type watcher struct {
	id int
	fn func(value string)
}

type Store struct {
	dir string
	log zerolog.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	watchers map[string][]watcher
	nextID   int
	done     chan struct{}
}

// New creates the directory (0700) if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("token store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create token store directory %s: %w", dir, err)
	}
	return &Store{
		dir:      dir,
		log:      log.Logger.With().Str("component", "filestore").Logger(),
		watchers: make(map[string][]watcher),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid slot name %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get returns "" for a missing slot.
func (s *Store) Get(key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return string(b), nil
}

// Set replaces the slot atomically (temp file + rename).
func (s *Store) Set(key, value string) error {
	if value == "" {
		return s.Delete(key)
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for slot %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod slot %s: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close slot %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to replace slot %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// Watch reports every change of key's file, whichever process made it.
func (s *Store) Watch(key string, fn func(value string)) (func(), error) {
	if _, err := s.path(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fsw == nil {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := fsw.Add(s.dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
		}
		s.fsw = fsw
		s.done = make(chan struct{})
		go s.loop(fsw, s.done)
	}

	s.nextID++
	id := s.nextID
	s.watchers[key] = append(s.watchers[key], watcher{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		list := s.watchers[key]
		for i, w := range list {
			if w.id == id {
				s.watchers[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(s.watchers[key]) == 0 {
			delete(s.watchers, key)
		}
	}, nil
}

// Close stops the file watcher.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fsw == nil {
		return nil
	}
	close(s.done)
	err := s.fsw.Close()
	s.fsw = nil
	return err
}

func (s *Store) loop(fsw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.dispatch(filepath.Base(event.Name), event.Has(fsnotify.Remove))
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			s.log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// dispatch reports a removal as "" even when the file was recreated since,
// so a clear is never hidden behind a later write.
func (s *Store) dispatch(key string, removed bool) {
	s.mu.Lock()
	watchers := append([]watcher(nil), s.watchers[key]...)
	s.mu.Unlock()

	if len(watchers) == 0 {
		return
	}

	var value string
	if !removed {
		var err error
		if value, err = s.Get(key); err != nil {
			s.log.Warn().Err(err).Str("slot", key).Msg("failed to read changed slot")
			return
		}
	}
	for _, w := range watchers {
		go w.fn(value)
	}
}
