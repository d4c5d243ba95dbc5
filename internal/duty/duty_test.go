package duty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hollis/plant-sensor/internal/persist"
)

func newTestController(store *persist.MemStore, hooks Hooks) (*Controller, *persist.Cell[persist.State]) {
	cell := persist.NewCell(persist.State{})
	c := New(store, cell, time.Second, time.Minute, hooks)
	c.sleep = func(ctx context.Context, d time.Duration) {}
	return c, cell
}

func TestBootCounterAdvancesEveryCycle(t *testing.T) {
	store := &persist.MemStore{State: persist.State{BootCount: 41}}
	c, cell := newTestController(store, Hooks{
		Initialize: func(ctx context.Context) error { return nil },
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := cell.Get().BootCount; got != 42 {
		t.Fatalf("boot count = %d, want 42", got)
	}
	if store.State.BootCount != 42 {
		t.Fatalf("persisted boot count = %d, want 42", store.State.BootCount)
	}
}

func TestBootCounterSavedBeforeInitialize(t *testing.T) {
	store := &persist.MemStore{}
	c, _ := newTestController(store, Hooks{
		Initialize: func(ctx context.Context) error { return errors.New("no network") },
	})

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite an initialize failure")
	}
	// The failed cycle still counts as a boot.
	if store.State.BootCount != 1 {
		t.Fatalf("persisted boot count = %d, want 1", store.State.BootCount)
	}
}

func TestPhasesRunInOrder(t *testing.T) {
	store := &persist.MemStore{}
	var order []string
	c, _ := newTestController(store, Hooks{
		Initialize: func(ctx context.Context) error {
			order = append(order, "initialize")
			return nil
		},
		WindDown: func() { order = append(order, "winddown") },
		Hibernate: func(remaining time.Duration) error {
			order = append(order, "hibernate")
			return nil
		},
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"initialize", "winddown", "hibernate"}
	if len(order) != len(want) {
		t.Fatalf("hooks ran as %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hooks ran as %v, want %v", order, want)
		}
	}
	if c.Phase() != PhaseSleeping {
		t.Fatalf("final phase = %s, want %s", c.Phase(), PhaseSleeping)
	}
}

func TestHibernateGetsRemainingPeriod(t *testing.T) {
	store := &persist.MemStore{}
	var remaining time.Duration
	cell := persist.NewCell(persist.State{})
	c := New(store, cell, 10*time.Second, time.Minute, Hooks{
		Initialize: func(ctx context.Context) error { return nil },
		Hibernate: func(d time.Duration) error {
			remaining = d
			return nil
		},
	})
	c.sleep = func(ctx context.Context, d time.Duration) {}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if remaining != 50*time.Second {
		t.Fatalf("remaining = %v, want 50s", remaining)
	}
}

func TestAwakeWindowCellChangesPersistedAtSleep(t *testing.T) {
	store := &persist.MemStore{}
	var cell *persist.Cell[persist.State]
	c, cell := newTestController(store, Hooks{
		Initialize: func(ctx context.Context) error { return nil },
		WindDown: func() {
			cell.Update(func(s persist.State) persist.State {
				s.DiscoverySent = true
				return s
			})
		},
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !store.State.DiscoverySent {
		t.Fatal("discovery flag set during the awake window was not persisted")
	}
}

func TestLoadFailureAbortsCycle(t *testing.T) {
	store := &persist.MemStore{LoadError: errors.New("disk gone")}
	c, _ := newTestController(store, Hooks{
		Initialize: func(ctx context.Context) error {
			t.Fatal("initialize ran despite a state load failure")
			return nil
		},
	})

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite a state load failure")
	}
}
