package persist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCellGetIdempotent(t *testing.T) {
	c := NewCell(State{BootCount: 7})
	first := c.Get()
	second := c.Get()
	if first != second {
		t.Errorf("two Gets without a Set differ: %+v vs %+v", first, second)
	}
}

func TestCellSetGet(t *testing.T) {
	c := NewCell(State{})
	c.Set(State{BootCount: 3, DiscoverySent: true})
	got := c.Get()
	if got.BootCount != 3 || !got.DiscoverySent {
		t.Errorf("got %+v", got)
	}
}

func TestCellUpdate(t *testing.T) {
	c := NewCell(State{BootCount: 1})
	got := c.Update(func(s State) State {
		s.BootCount++
		return s
	})
	if got.BootCount != 2 {
		t.Errorf("update returned %+v", got)
	}
	if c.Get().BootCount != 2 {
		t.Errorf("cell holds %+v", c.Get())
	}
}

func TestBootCountWraps(t *testing.T) {
	c := NewCell(State{BootCount: ^uint32(0)})
	got := c.Update(func(s State) State {
		s.BootCount++
		return s
	})
	if got.BootCount != 0 {
		t.Errorf("counter did not wrap: %d", got.BootCount)
	}
}

func TestFileStoreColdBoot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	state, err := store.Load()
	if err != nil {
		t.Fatalf("load with no file: %v", err)
	}
	if state != (State{}) {
		t.Errorf("cold boot state = %+v, want zero", state)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	want := State{BootCount: 41, DiscoverySent: true}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFileStoreWipeForcesColdBoot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err := store.Save(State{BootCount: 9}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Wipe(); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	state, err := store.Load()
	if err != nil {
		t.Fatalf("load after wipe: %v", err)
	}
	if state != (State{}) {
		t.Errorf("state after wipe = %+v, want zero", state)
	}
	// Wiping twice is fine.
	if err := store.Wipe(); err != nil {
		t.Errorf("second wipe: %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	if _, err := store.Load(); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")
	store := NewFileStore(path)
	if err := store.Save(State{BootCount: 1}); err != nil {
		t.Fatalf("save into missing dir: %v", err)
	}
}
