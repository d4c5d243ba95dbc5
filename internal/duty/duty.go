// Package duty drives the device's wake/measure/report/sleep cycle.
package duty

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hollis/plant-sensor/internal/persist"
)

// Phase is one stage of a duty cycle.
type Phase int

const (
	PhaseColdBoot Phase = iota
	PhaseInitializing
	PhaseAwake
	PhaseSleeping
)

func (p Phase) String() string {
	switch p {
	case PhaseColdBoot:
		return "cold-boot"
	case PhaseInitializing:
		return "initializing"
	case PhaseAwake:
		return "awake"
	case PhaseSleeping:
		return "sleeping"
	}
	return "unknown"
}

const (
	// DefaultAwakeWindow is long enough for one full acquire/publish round
	// trip including DHT retries.
	DefaultAwakeWindow = 30 * time.Second

	// DefaultPeriod is the total wake-to-wake duty-cycle period.
	DefaultPeriod = time.Hour
)

// Hooks are the controller's side effects, supplied by the binary.
type Hooks struct {
	// Initialize brings up peripherals and collaborators and spawns the
	// acquisition, reporting, and relay tasks. An error here aborts the
	// cycle before the awake window opens.
	Initialize func(ctx context.Context) error

	// WindDown signals collaborators to stop before state is persisted.
	WindDown func()

	// Hibernate puts the device down for the remaining duration. In
	// production it exits the process and does not return; a simulation
	// mode sleeps in-process instead.
	Hibernate func(remaining time.Duration) error
}

// Controller sequences one duty cycle through its phases.
type Controller struct {
	store  persist.Store
	cell   *persist.Cell[persist.State]
	awake  time.Duration
	period time.Duration
	hooks  Hooks
	sleep  func(ctx context.Context, d time.Duration)

	mu    sync.Mutex
	phase Phase
}

// New creates a controller. The cell is shared with the collaborators that
// read the boot counter and the discovery flag; the store is the sleep
// boundary it is serialized through.
func New(store persist.Store, cell *persist.Cell[persist.State], awake, period time.Duration, hooks Hooks) *Controller {
	if awake <= 0 {
		awake = DefaultAwakeWindow
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Controller{
		store:  store,
		cell:   cell,
		awake:  awake,
		period: period,
		hooks:  hooks,
		sleep:  sleepCtx,
	}
}

// Phase returns the controller's current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	log.Printf("duty: entering %s", p)
}

// Run executes one duty cycle. A returned error from the boot or initialize
// phases means the process should restart from scratch rather than limp along
// half-initialized; the caller is expected to treat it as fatal.
func (c *Controller) Run(ctx context.Context) error {
	c.setPhase(PhaseColdBoot)
	st, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("load persisted state: %w", err)
	}
	// The counter advances on every wake, before anything that can fail,
	// so interval trigger policies see every cycle.
	st.BootCount++
	if err := c.store.Save(st); err != nil {
		return fmt.Errorf("save boot counter: %w", err)
	}
	c.cell.Set(st)
	log.Printf("duty: boot %d", st.BootCount)

	c.setPhase(PhaseInitializing)
	if err := c.hooks.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	c.setPhase(PhaseAwake)
	c.sleep(ctx, c.awake)
	if c.hooks.WindDown != nil {
		c.hooks.WindDown()
	}

	c.setPhase(PhaseSleeping)
	// The cell may have changed during the awake window (discovery flag),
	// so it is persisted again at the sleep boundary.
	if err := c.store.Save(c.cell.Get()); err != nil {
		log.Printf("duty: persist state before hibernate: %v", err)
	}

	remaining := c.period - c.awake
	if remaining < 0 {
		remaining = 0
	}
	if c.hooks.Hibernate != nil {
		return c.hooks.Hibernate(remaining)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
