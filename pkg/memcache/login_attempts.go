package mem

import (
	"sync"
	"time"
)

type LoginAttemptStore interface {
	// Record adds one failed attempt for the identity.
	Record(email string)

	// Blocked reports whether the identity has reached the failure cap
	// within the window.
	Blocked(email string) bool

	// Clear drops the identity's counter, e.g. after a successful login.
	Clear(email string)
}

type attemptEntry struct {
	failures []time.Time
}

// LoginAttempts keeps a per-identity sliding window of failed
// authentication attempts. Attempts older than the window are discarded
// on access, so no janitor goroutine is needed.
type LoginAttempts struct {
	mu      sync.Mutex
	data    map[string]*attemptEntry
	max     int
	window  time.Duration
	nowFunc func() time.Time
}

func NewLoginAttempts(max int, window time.Duration) *LoginAttempts {
	return &LoginAttempts{
		data:    make(map[string]*attemptEntry),
		max:     max,
		window:  window,
		nowFunc: time.Now,
	}
}

func (s *LoginAttempts) Record(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[email]
	if !ok {
		e = &attemptEntry{}
		s.data[email] = e
	}
	e.failures = append(s.prune(e.failures), s.nowFunc())
}

func (s *LoginAttempts) Blocked(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[email]
	if !ok {
		return false
	}
	e.failures = s.prune(e.failures)
	if len(e.failures) == 0 {
		delete(s.data, email)
		return false
	}
	return len(e.failures) >= s.max
}

func (s *LoginAttempts) Clear(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, email)
}

func (s *LoginAttempts) prune(failures []time.Time) []time.Time {
	cutoff := s.nowFunc().Add(-s.window)
	kept := failures[:0]
	for _, ts := range failures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
