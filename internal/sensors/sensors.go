// Package sensors owns all sensor hardware handles and produces one reading
// batch per duty cycle.
package sensors

import (
	"context"
	"log"
	"time"

	"github.com/hollis/plant-sensor/internal/adc"
	"github.com/hollis/plant-sensor/internal/dht11"
	"github.com/hollis/plant-sensor/internal/gpio"
	"github.com/hollis/plant-sensor/internal/reading"
	"github.com/hollis/plant-sensor/internal/sampling"
)

const (
	// DefaultSampleCount is the per-channel sample budget per cycle.
	DefaultSampleCount = 8

	// DefaultWarmupDelay lets a freshly energized probe settle before its
	// first sample.
	DefaultWarmupDelay = 10 * time.Millisecond

	dhtMaxFailures   = 3
	dhtRetryCooldown = 2 * time.Second

	// usbChargingMillivolts: above this the battery reading is really the
	// charging supply and must not be reported as battery state.
	usbChargingMillivolts = 4200

	// The battery sits behind a 2:1 resistive divider.
	batteryDividerRatio = 2
)

// Config holds the per-deployment acquisition knobs.
type Config struct {
	SampleCount   int
	WarmupDelay   time.Duration
	DHTFailures   int
	DHTCooldown   time.Duration
	CycleInterval time.Duration
}

// DefaultConfig returns the reference deployment configuration.
func DefaultConfig() Config {
	return Config{
		SampleCount:   DefaultSampleCount,
		WarmupDelay:   DefaultWarmupDelay,
		DHTFailures:   dhtMaxFailures,
		DHTCooldown:   dhtRetryCooldown,
		CycleInterval: 20 * time.Second,
	}
}

// Acquirer sequences one acquisition cycle: power-gated analog sampling
// interleaved with one-wire reads, aggregation, derivation, and the pump
// trigger decision. It exclusively owns its hardware handles for its task
// lifetime.
type Acquirer struct {
	dht           *dht11.Decoder
	adc           adc.Reader
	moisturePower gpio.Output
	waterPower    gpio.Output
	policy        TriggerPolicy
	cfg           Config
	sleep         func(time.Duration)
}

// New creates an acquirer. The hardware handles must not be shared with any
// other task.
func New(dht *dht11.Decoder, reader adc.Reader, moisturePower, waterPower gpio.Output, policy TriggerPolicy, cfg Config) *Acquirer {
	return &Acquirer{
		dht:           dht,
		adc:           reader,
		moisturePower: moisturePower,
		waterPower:    waterPower,
		policy:        policy,
		cfg:           cfg,
		sleep:         time.Sleep,
	}
}

// Run produces batches until the context ends, blocking on the channel send
// when the consumer stalls. With deep sleep enforcing the outer duty-cycle
// boundary, in practice this runs once per wake.
func (a *Acquirer) Run(ctx context.Context, bootCount uint32, out chan<- reading.Batch) {
	for {
		batch := a.AcquireBatch(bootCount)

		select {
		case out <- batch:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(a.cfg.CycleInterval):
		case <-ctx.Done():
			return
		}
	}
}

// AcquireBatch runs one full acquisition cycle and assembles the batch.
// A single failing sensor is logged and omitted; it never aborts the cycle.
func (a *Acquirer) AcquireBatch(bootCount uint32) reading.Batch {
	log.Printf("sensors: reading sensors")

	var (
		temps, hums, moistures, waters, batteries []uint16

		dhtFailures = 0
	)

	for i := 0; i < a.cfg.SampleCount; i++ {
		// Energize the probe rails only for the duration of their reads:
		// continuous current through a resistive probe electrolyzes it.
		a.setRails(true)
		a.sleep(a.cfg.WarmupDelay)

		if v, err := a.adc.Read(adc.ChannelMoisture); err != nil {
			log.Printf("sensors: read moisture: %v", err)
		} else {
			moistures = append(moistures, v)
		}
		if v, err := a.adc.Read(adc.ChannelWaterLevel); err != nil {
			log.Printf("sensors: read water level: %v", err)
		} else {
			waters = append(waters, v)
		}
		a.setRails(false)

		if dhtFailures < a.cfg.DHTFailures {
			m, err := a.dht.Read()
			if err != nil {
				dhtFailures++
				log.Printf("sensors: read dht11 (failure %d/%d): %v", dhtFailures, a.cfg.DHTFailures, err)
				a.sleep(a.cfg.DHTCooldown)
			} else {
				temps = append(temps, uint16(m.Temperature))
				hums = append(hums, uint16(m.Humidity))
			}
		}

		if v, err := a.adc.Read(adc.ChannelBattery); err != nil {
			log.Printf("sensors: read battery: %v", err)
		} else {
			mv := uint32(v) * batteryDividerRatio
			if mv >= usbChargingMillivolts {
				// Charging supply, not battery state. Discarded here, before
				// aggregation, so it is never mistaken for a statistical
				// outlier.
				log.Printf("sensors: battery voltage %dmV looks like USB charging, discarding sample", mv)
			} else {
				batteries = append(batteries, uint16(mv))
			}
		}
	}

	var batch reading.Batch

	if t, ok := sampling.TrimmedMean(temps); ok {
		batch.Append(reading.NewAirTemperature(uint8(t)))
	} else {
		log.Printf("sensors: not enough temperature samples, omitting")
	}
	if h, ok := sampling.TrimmedMean(hums); ok {
		batch.Append(reading.NewAirHumidity(uint8(h)))
	} else {
		log.Printf("sensors: not enough humidity samples, omitting")
	}

	moisture := reading.MoistureMoist
	moistureValid := false
	if m, ok := sampling.TrimmedMean(moistures); ok {
		batch.Append(reading.NewSoilMoistureRaw(m))
		batch.Append(reading.NewSoilMoisture(m))
		moisture = reading.ClassifyMoisture(m)
		moistureValid = true
	} else {
		log.Printf("sensors: not enough moisture samples, omitting")
	}

	if w, ok := sampling.TrimmedMean(waters); ok {
		batch.Append(reading.NewWaterLevel(w))
	} else {
		log.Printf("sensors: not enough water level samples, omitting")
	}

	if b, ok := sampling.TrimmedMean(batteries); ok {
		batch.Append(reading.NewBatteryVoltage(b))
		// A batch without battery state is not worth a radio transmission.
		batch.Publish = true
	} else {
		log.Printf("sensors: no valid battery samples, batch will not publish")
	}

	trigger := a.policy.Trigger(TriggerInput{
		Moisture:      moisture,
		MoistureValid: moistureValid,
		BootCount:     bootCount,
	})
	batch.Append(reading.NewPumpTrigger(trigger))

	return batch
}

func (a *Acquirer) setRails(on bool) {
	if err := a.moisturePower.Set(on); err != nil {
		log.Printf("sensors: moisture rail: %v", err)
	}
	if err := a.waterPower.Set(on); err != nil {
		log.Printf("sensors: water rail: %v", err)
	}
}
