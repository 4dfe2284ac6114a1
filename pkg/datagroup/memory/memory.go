// Package memory provides an in-memory implementation of datagroup.Store
// for testing and lightweight deployments. Entries are lost when the
// process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/mwessel/relais/pkg/datagroup"
)

// entry holds a stored value and its owning group.
type entry struct {
	value string
	group string
}

// Store is an in-memory datagroup.Store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// Ensure Store implements datagroup.Store at compile time.
var _ datagroup.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Put stores value under key, replacing any existing entry including its
// owning group.
func (s *Store) Put(_ context.Context, key, value, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, group: group}
	return nil
}

// Get returns the value for key when group matches.
func (s *Store) Get(_ context.Context, key, group string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return "", datagroup.ErrKeyNotFound
	}
	if e.group != group {
		return "", datagroup.ErrAccessDenied
	}
	return e.value, nil
}

// Len reports the number of stored entries. Used by tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
