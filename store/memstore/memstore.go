// Package memstore is a process-local token store. Several session managers
// sharing one Store behave like several tabs of one browser profile.
package memstore

import (
	"sync"

	"github.com/jrsteele09/enertrack-console/session"
)

var _ session.Store = (*Store)(nil)

type watcher struct {
	id int
	fn func(value string)
}

type Store struct {
	mu       sync.RWMutex
	slots    map[string]string
	watchers map[string][]watcher
	nextID   int
}

func New() *Store {
	return &Store{
		slots:    make(map[string]string),
		watchers: make(map[string][]watcher),
	}
}

// Get returns "" for an empty slot.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[key], nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	if value == "" {
		delete(s.slots, key)
	} else {
		s.slots[key] = value
	}
	watchers := append([]watcher(nil), s.watchers[key]...)
	s.mu.Unlock()

	notify(watchers, value)
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	_, existed := s.slots[key]
	delete(s.slots, key)
	watchers := append([]watcher(nil), s.watchers[key]...)
	s.mu.Unlock()

	if existed {
		notify(watchers, "")
	}
	return nil
}

// Watch registers fn for changes of key. Callbacks run on their own goroutine.
func (s *Store) Watch(key string, fn func(value string)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

// Clear empties every slot, as a user wiping site data would.
func (s *Store) Clear() {
	s.mu.Lock()
	cleared := make(map[string][]watcher)
	for key := range s.slots {
		cleared[key] = append([]watcher(nil), s.watchers[key]...)
	}
	s.slots = make(map[string]string)
	s.mu.Unlock()

	for _, watchers := range cleared {
		notify(watchers, "")
	}
}

func notify(watchers []watcher, value string) {
	for _, w := range watchers {
		go w.fn(value)
	}
}
