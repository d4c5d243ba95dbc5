package pump

import (
	"context"
	"log"
	"time"

	"github.com/hollis/plant-sensor/internal/gpio"
)

// DefaultRunDuration is how long the pump runs per enable decision.
const DefaultRunDuration = 10 * time.Second

// Relay applies pump decisions to a GPIO output. Each enable runs the pump
// for a fixed duration and then turns it off regardless of further signals,
// bounding the actuation window independently of sensor cadence.
type Relay struct {
	out    gpio.Output
	runFor time.Duration
	sleep  func(ctx context.Context, d time.Duration)
}

// NewRelay creates a relay driving the given output.
func NewRelay(out gpio.Output, runFor time.Duration) *Relay {
	return &Relay{
		out:    out,
		runFor: runFor,
		sleep:  sleepCtx,
	}
}

// Run consumes decisions from the signal until the context ends. The output
// is driven low on exit.
func (r *Relay) Run(ctx context.Context, sig *Signal) {
	defer func() {
		if err := r.out.Set(false); err != nil {
			log.Printf("relay: drive low on exit: %v", err)
		}
	}()

	for {
		enabled, err := sig.Wait(ctx)
		if err != nil {
			return
		}
		if !enabled {
			if err := r.out.Set(false); err != nil {
				log.Printf("relay: turn off pump: %v", err)
			}
			continue
		}

		log.Printf("relay: turning on pump for %v", r.runFor)
		if err := r.out.Set(true); err != nil {
			log.Printf("relay: turn on pump: %v", err)
			continue
		}
		r.sleep(ctx, r.runFor)
		log.Printf("relay: turning off pump")
		if err := r.out.Set(false); err != nil {
			log.Printf("relay: turn off pump: %v", err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
