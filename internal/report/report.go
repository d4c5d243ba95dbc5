// Package report consumes reading batches and fans them out: broker
// publication, pump decision (with the drainage interlock), display text,
// and the local archive.
package report

import (
	"context"
	"log"

	"github.com/hollis/plant-sensor/internal/display"
	"github.com/hollis/plant-sensor/internal/mqtt"
	"github.com/hollis/plant-sensor/internal/persist"
	"github.com/hollis/plant-sensor/internal/pump"
	"github.com/hollis/plant-sensor/internal/reading"
	"github.com/hollis/plant-sensor/internal/store"
)

// Reporter is the reporting/network collaborator: the single consumer of the
// reading channel and the only producer of interlocked pump decisions.
type Reporter struct {
	client  mqtt.Client
	disp    display.Display
	archive *store.Archive // nil disables archiving
	pumpSig *pump.Signal
	state   *persist.Cell[persist.State]
}

// New creates a reporter. archive may be nil.
func New(client mqtt.Client, disp display.Display, archive *store.Archive, pumpSig *pump.Signal, state *persist.Cell[persist.State]) *Reporter {
	return &Reporter{
		client:  client,
		disp:    disp,
		archive: archive,
		pumpSig: pumpSig,
		state:   state,
	}
}

// Run consumes batches until the context ends.
func (r *Reporter) Run(ctx context.Context, batches <-chan reading.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-batches:
			r.HandleBatch(batch)
		}
	}
}

// HandleBatch processes one acquisition cycle's output.
func (r *Reporter) HandleBatch(batch reading.Batch) {
	decision := r.pumpDecision(batch)
	r.pumpSig.Send(decision)

	if batch.Publish {
		r.maybeSendDiscovery(batch)
		r.publishBatch(batch, decision)
	} else {
		log.Printf("report: batch has no valid battery sample, withholding from broker")
	}

	if err := r.disp.WriteMultiline(batch.String()); err != nil {
		log.Printf("report: write display: %v", err)
	}
	if err := r.disp.PowerSave(); err != nil {
		log.Printf("report: display powersave: %v", err)
	}

	if r.archive != nil {
		bootCount := r.state.Get().BootCount
		if err := r.archive.AddBatch(batch, bootCount, batch.Publish); err != nil {
			log.Printf("report: archive batch: %v", err)
		}
	}
}

// pumpDecision combines the acquisition-side trigger with the drainage
// interlock: a full tray means standing water, and further pumping risks
// overflow, so Full force-disables the pump regardless of the trigger.
func (r *Reporter) pumpDecision(batch reading.Batch) bool {
	trigger := false
	if t, ok := batch.Find(reading.KindPumpTrigger); ok {
		trigger = t.Enabled
	}

	if w, ok := batch.Find(reading.KindWaterLevel); ok && w.Water == reading.WaterFull {
		if trigger {
			log.Printf("report: drainage tray is full, overriding pump trigger")
		}
		return false
	}
	return trigger
}

// maybeSendDiscovery announces the device's entities once per cold-boot era.
func (r *Reporter) maybeSendDiscovery(batch reading.Batch) {
	if r.state.Get().DiscoverySent {
		return
	}

	log.Printf("report: first run, sending discovery messages")
	if err := r.client.PublishDiscovery(batch.Readings); err != nil {
		// Leave the flag clear so the next batch retries.
		log.Printf("report: publish discovery: %v", err)
		return
	}
	r.state.Update(func(s persist.State) persist.State {
		s.DiscoverySent = true
		return s
	})
}

func (r *Reporter) publishBatch(batch reading.Batch, decision bool) {
	for _, rd := range batch.Readings {
		if err := r.client.PublishReading(rd); err != nil {
			log.Printf("report: publish %s: %v", rd.Topic(), err)
		}
	}
	if err := r.client.PublishPumpState(decision); err != nil {
		log.Printf("report: publish pump state: %v", err)
	}
}
