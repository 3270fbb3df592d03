// Package cache is the in-process query cache used by the headless agent.
package cache

import (
	"sort"
	"sync"

	"ride-hail-realtime/internal/ports"
)

// Op is the kind of change an observer is told about.
type Op string

const (
	OpSet        Op = "set"
	OpInvalidate Op = "invalidate"
)

// Change describes one mutation.
type Change struct {
	Op  Op
	Key ports.QueryKey
}

type entry struct {
	value any
	stale bool
}

// Store is a concurrency-safe ports.QueryCache. Invalidated entries stay
// readable but are marked stale until the next Set, like a reactive query
// cache serving the last result while it refetches.
type Store struct {
	mu        sync.RWMutex
	entries   map[ports.QueryKey]*entry
	observers []func(Change)
	refetch   map[ports.QueryKey][]func()
}

var _ ports.QueryCache = (*Store)(nil)

func New() *Store {
	return &Store{
		entries: make(map[ports.QueryKey]*entry),
		refetch: make(map[ports.QueryKey][]func()),
	}
}

// Observe registers fn to be called after every mutation. fn runs on the
// mutating goroutine without the store lock held.
func (s *Store) Observe(fn func(Change)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Refetch registers fn to run when a fresh entry at key turns stale. fn runs
// on the invalidating goroutine without the store lock held and must not
// block. Invalidating an entry that is already stale or absent does not
// call it.
func (s *Store) Refetch(key ports.QueryKey, fn func()) {
	s.mu.Lock()
	s.refetch[key] = append(s.refetch[key], fn)
	s.mu.Unlock()
}

// Get returns the cached value, stale or not.
func (s *Store) Get(key ports.QueryKey) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Stale reports whether key is cached and was invalidated since its last Set.
func (s *Store) Stale(key ports.QueryKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return ok && e.stale
}

func (s *Store) Set(key ports.QueryKey, value any) {
	s.mu.Lock()
	s.entries[key] = &entry{value: value}
	obs := s.observers
	s.mu.Unlock()

	notify(obs, Change{Op: OpSet, Key: key})
}

// Invalidate marks key and every key below it stale. Observers are notified
// once with the requested key even when nothing was cached.
func (s *Store) Invalidate(key ports.QueryKey) {
	var fetch []func()

	s.mu.Lock()
	for k, e := range s.entries {
		if !key.Covers(k) || e.stale {
			continue
		}
		e.stale = true
		fetch = append(fetch, s.refetch[k]...)
	}
	obs := s.observers
	s.mu.Unlock()

	notify(obs, Change{Op: OpInvalidate, Key: key})
	for _, fn := range fetch {
		fn()
	}
}

// Keys lists the cached keys, stale ones included, in sorted order.
func (s *Store) Keys() []ports.QueryKey {
	s.mu.RLock()
	out := make([]ports.QueryKey, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func notify(obs []func(Change), c Change) {
	for _, fn := range obs {
		fn(c)
	}
}
