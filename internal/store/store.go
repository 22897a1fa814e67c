// Package store has a small typed observable value, shared by the components
// that need to notify other views about local state changes.
package store

import (
	"sort"
	"sync"
)

// Store holds a value of type T and notifies subscribers on every change.
//
// Subscribers are called synchronously, in subscription order, from the goroutine
// that changed the value and without holding the store lock, so they can read
// the store again. Subscribers must not change the store.
type Store[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[uint64]func(T)
	nextID uint64

	notifyMu sync.Mutex
}

// New returns a new store with an initial value.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  map[uint64]func(T){},
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies the subscribers.
func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update sets the value returned by fn, fn receives the current value.
func (s *Store[T]) Update(fn func(current T) T) {
	// Serialize notifications so subscribers see the changes in the same order they were applied.
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.value = fn(s.value)
	v := s.value
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn to be called with every new value.
// The returned func removes the subscription.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

func (s *Store[T]) subscribers() []func(T) {
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}
