package sensors

import "github.com/hollis/plant-sensor/internal/reading"

// TriggerInput is what a trigger policy may base its decision on.
type TriggerInput struct {
	Moisture      reading.MoistureLevel
	MoistureValid bool
	BootCount     uint32
}

// TriggerPolicy decides whether this cycle asks for the pump to run. The
// decision is a request only; the reporting side still applies the drainage
// interlock before anything reaches the relay.
type TriggerPolicy interface {
	Trigger(in TriggerInput) bool
}

// MoisturePolicy fires when the soil classifies as dry.
type MoisturePolicy struct{}

// Trigger reports true when a valid moisture aggregate classified as dry.
func (MoisturePolicy) Trigger(in TriggerInput) bool {
	return in.MoistureValid && in.Moisture == reading.MoistureDry
}

// IntervalPolicy fires every Nth boot, a fixed-interval watering schedule
// built on the persisted boot counter for deployments without a trustworthy
// moisture probe.
type IntervalPolicy struct {
	Every uint32
}

// Trigger reports true when the boot counter lands on the interval.
func (p IntervalPolicy) Trigger(in TriggerInput) bool {
	if p.Every == 0 {
		return false
	}
	return in.BootCount%p.Every == 0
}
