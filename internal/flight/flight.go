package flight

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when an operation for the same key is already running.
var ErrInFlight = errors.New("operation already in flight")

// Supervisor runs at most one operation per resource key at a time. A second
// call for a key whose operation is still running is rejected immediately
// instead of being queued; rapid repeated submissions (double clicks, track
// toggles) therefore collapse to a single execution.
type Supervisor struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSupervisor creates an empty supervisor
func NewSupervisor() *Supervisor {
	return &Supervisor{
		inflight: make(map[string]struct{}),
	}
}

// Do runs fn if no operation for key is in flight, returning ErrInFlight
// otherwise. The key is released when fn returns, even on panic.
func (s *Supervisor) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrInFlight
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()

	return fn(ctx)
}

// Busy reports whether an operation for key is currently running
func (s *Supervisor) Busy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[key]
	return busy
}
