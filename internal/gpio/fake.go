package gpio

import "sync"

// FakeOutput is a test double that records every level written to the line.
type FakeOutput struct {
	mu sync.Mutex

	// Transitions contains every value passed to Set, in order.
	Transitions []bool

	// Closed tracks if Close was called.
	Closed bool

	// SetError, if set, will be returned by Set.
	SetError error
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the requested level.
func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.Transitions = append(f.Transitions, on)
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Level returns the last level written, or false if none was.
func (f *FakeOutput) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Transitions) == 0 {
		return false
	}
	return f.Transitions[len(f.Transitions)-1]
}

// History returns a copy of the recorded transitions.
func (f *FakeOutput) History() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.Transitions))
	copy(out, f.Transitions)
	return out
}

// Reset clears recorded transitions.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transitions = nil
	f.Closed = false
	f.SetError = nil
}
