// Package ratelimit implements the per-IP sliding-window limiter that
// sits in front of webhook processing. State is best-effort: under
// horizontal scaling each process enforces its own window.
package ratelimit

import (
	"sync"
	"time"
)

// Store records hits and reports how many fall inside the window.
// The in-memory implementation is the single-process default; a shared
// external counter can be plugged in for multi-process deployments.
type Store interface {
	// Take records a hit for key at now and returns the number of hits
	// within (now-window, now], including this one.
	Take(key string, now time.Time, window time.Duration) int
}

type Limiter struct {
	window time.Duration
	max    int
	store  Store
	now    func() time.Time
}

func New(window time.Duration, max int) *Limiter {
	return NewWithStore(window, max, NewMemoryStore(), time.Now)
}

func NewWithStore(window time.Duration, max int, store Store, now func() time.Time) *Limiter {
	return &Limiter{window: window, max: max, store: store, now: now}
}

// Allow reports whether a request from key fits the quota.
func (l *Limiter) Allow(key string) bool {
	return l.store.Take(key, l.now(), l.window) <= l.max
}

type memoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{hits: make(map[string][]time.Time)}
}

func (s *memoryStore) Take(key string, now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	fresh := s.hits[key][:0:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	fresh = append(fresh, now)
	s.hits[key] = fresh
	return len(fresh)
}
