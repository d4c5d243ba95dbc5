// Package persist provides the small state cells that survive the hibernate
// boundary. On the original hardware this state lives in a RAM region that
// deep sleep preserves; here it is serialized through an injected Store so
// production uses a file and tests use memory.
package persist

import "sync"

// State holds the two persisted cells. BootCount increments once per boot and
// wraps at the integer width; DiscoverySent flips once and stays set until a
// true cold boot clears it.
type State struct {
	BootCount     uint32 `json:"boot_count"`
	DiscoverySent bool   `json:"discovery_sent"`
}

// Store loads and saves persisted state across hibernate cycles.
type Store interface {
	// Load returns the persisted state. A cold boot (no prior state) returns
	// the zero State and no error.
	Load() (State, error)

	// Save persists the state for the next wake.
	Save(State) error
}

// Cell is a mutex-guarded memory cell. The guarded section is the hosted
// analog of the firmware's interrupt-disabling critical section: all access
// goes through Get/Set, and no caller holds the cell across a blocking
// operation.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
}

// NewCell returns a cell holding the given initial value.
func NewCell[T any](value T) *Cell[T] {
	return &Cell[T]{value: value}
}

// Get returns a copy of the contained value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the contained value.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

// Update applies fn to the contained value under the lock, making
// read-modify-write sequences atomic. fn must not block.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	return c.value
}
