// Package pump carries the pump enable decision from the reporting side to
// the relay actuator.
package pump

import (
	"context"
	"sync"
)

// Signal is a single-slot, latest-value-wins primitive: a new Send overwrites
// any unread prior value, and a waiter only ever observes the newest one.
// Only the most recent pump decision is meaningful, so this is deliberately
// not a queue.
type Signal struct {
	mu       sync.Mutex
	value    bool
	signaled bool
	notify   chan struct{}
}

// NewSignal creates an unsignaled Signal.
func NewSignal() *Signal {
	return &Signal{notify: make(chan struct{}, 1)}
}

// Send stores the value, overwriting any unread one, and wakes a waiter.
func (s *Signal) Send(enabled bool) {
	s.mu.Lock()
	s.value = enabled
	s.signaled = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// TryWait consumes and returns the pending value without blocking. The second
// result reports whether a value was pending.
func (s *Signal) TryWait() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signaled {
		return false, false
	}
	s.signaled = false
	return s.value, true
}

// Wait blocks until a value has been sent since the last Wait, then consumes
// and returns it. Returns ctx.Err if the context ends first.
func (s *Signal) Wait(ctx context.Context) (bool, error) {
	for {
		s.mu.Lock()
		if s.signaled {
			v := s.value
			s.signaled = false
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
