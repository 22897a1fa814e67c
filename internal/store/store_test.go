package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/legalflow/internal/store"
)

func TestStoreGetSet(t *testing.T) {
	assert := assert.New(t)

	s := store.New(1)
	assert.Equal(1, s.Get())

	s.Set(2)
	assert.Equal(2, s.Get())

	s.Update(func(v int) int { return v * 10 })
	assert.Equal(20, s.Get())
}

func TestStoreSubscribe(t *testing.T) {
	tests := map[string]struct {
		run       func(s *store.Store[string], unsub func())
		expValues []string
	}{
		"Subscribers should receive every change in order.": {
			run: func(s *store.Store[string], _ func()) {
				s.Set("a")
				s.Set("b")
				s.Update(func(v string) string { return v + "c" })
			},
			expValues: []string{"a", "b", "bc"},
		},
		"Unsubscribed subscribers should not receive changes.": {
			run: func(s *store.Store[string], unsub func()) {
				s.Set("a")
				unsub()
				unsub() // Idempotent.
				s.Set("b")
			},
			expValues: []string{"a"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := store.New("")

			var got []string
			unsub := s.Subscribe(func(v string) { got = append(got, v) })
			test.run(s, unsub)

			assert.Equal(t, test.expValues, got)
		})
	}
}

func TestStoreSubscriberCanReadStore(t *testing.T) {
	s := store.New(0)

	var got int
	s.Subscribe(func(int) { got = s.Get() })
	s.Set(42)

	assert.Equal(t, 42, got)
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := store.New(0)

	var mu sync.Mutex
	calls := 0
	s.Subscribe(func(int) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Get())
	assert.Equal(t, 50, calls)
}
