package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrExpired is returned by Put when the deadline has already passed.
var ErrExpired = errors.New("deadline already passed")

// ExpiringStore holds values until they are taken or their deadline passes.
// Each entry owns a timer that deletes it at expiry; there is no sweep.
type ExpiringStore[K comparable, T any] struct {
	mu      sync.Mutex
	entries map[K]*expiringEntry[T]
	now     func() time.Time
}

type expiringEntry[T any] struct {
	value    T
	deadline time.Time
	timer    *time.Timer
}

// NewExpiringStore measures deadlines against now; nil means time.Now.
func NewExpiringStore[K comparable, T any](now func() time.Time) *ExpiringStore[K, T] {
	if now == nil {
		now = time.Now
	}
	return &ExpiringStore[K, T]{
		entries: make(map[K]*expiringEntry[T]),
		now:     now,
	}
}

// Put stores value under key until deadline, replacing any previous entry.
// A deadline already in the past stores nothing and returns ErrExpired.
func (s *ExpiringStore[K, T]) Put(key K, value T, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[key]; ok {
		prev.timer.Stop()
		delete(s.entries, key)
	}
	ttl := deadline.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}

	e := &expiringEntry[T]{value: value, deadline: deadline}
	e.timer = time.AfterFunc(ttl, func() { s.expire(key, e) })
	s.entries[key] = e
	return nil
}

// Take removes and returns the entry. Only one caller can take a given entry.
func (s *ExpiringStore[K, T]) Take(key K) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	e.timer.Stop()
	delete(s.entries, key)
	if !s.now().Before(e.deadline) {
		return zero, false
	}
	return e.value, true
}

func (s *ExpiringStore[K, T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ExpiringStore[K, T]) expire(key K, e *expiringEntry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[key] == e {
		delete(s.entries, key)
	}
}
