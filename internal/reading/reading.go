// Package reading contains the domain types for sensor observations.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep);
// everything here is pure data and classification logic.
package reading

import (
	"fmt"
	"strconv"
	"strings"
)

// Soil moisture calibration (raw ADC millivolts). Lower readings mean wetter
// soil on these resistive probes.
const (
	MoistureMin uint16 = 1600 // fully wet
	MoistureMax uint16 = 2100 // fully dry

	moistureWetThreshold = 0.8
	moistureDryThreshold = 0.15
)

// WaterLevelThreshold is the raw ADC value at or above which the drainage
// tray reads as Full.
const WaterLevelThreshold uint16 = 3000

// MoistureLevel is the qualitative soil moisture classification.
type MoistureLevel string

const (
	MoistureWet   MoistureLevel = "Wet"
	MoistureMoist MoistureLevel = "Moist"
	MoistureDry   MoistureLevel = "Dry"
)

// WaterLevel is the drainage tray classification.
type WaterLevel string

const (
	WaterFull  WaterLevel = "Full"
	WaterEmpty WaterLevel = "Empty"
)

// Kind identifies the sensor a Reading came from.
type Kind int

const (
	KindAirTemperature Kind = iota
	KindAirHumidity
	KindSoilMoistureRaw
	KindSoilMoisture
	KindWaterLevel
	KindBatteryVoltage
	KindPumpTrigger
)

// Reading is a single tagged sensor observation. Exactly one value field is
// meaningful, selected by Kind.
type Reading struct {
	Kind     Kind
	Number   uint16
	Moisture MoistureLevel
	Water    WaterLevel
	Enabled  bool
}

// NewAirTemperature returns an air temperature Reading in °C.
func NewAirTemperature(celsius uint8) Reading {
	return Reading{Kind: KindAirTemperature, Number: uint16(celsius)}
}

// NewAirHumidity returns an air humidity Reading in percent.
func NewAirHumidity(percent uint8) Reading {
	return Reading{Kind: KindAirHumidity, Number: uint16(percent)}
}

// NewSoilMoistureRaw returns a raw soil moisture Reading. The raw value is
// clamped to the calibration window so derived values stay well-defined at
// the input extremes.
func NewSoilMoistureRaw(raw uint16) Reading {
	return Reading{Kind: KindSoilMoistureRaw, Number: ClampMoisture(raw)}
}

// NewSoilMoisture returns a qualitative soil moisture Reading derived from a
// raw ADC value.
func NewSoilMoisture(raw uint16) Reading {
	return Reading{Kind: KindSoilMoisture, Moisture: ClassifyMoisture(raw)}
}

// NewWaterLevel returns a drainage water level Reading derived from a raw ADC
// value.
func NewWaterLevel(raw uint16) Reading {
	return Reading{Kind: KindWaterLevel, Water: ClassifyWaterLevel(raw)}
}

// NewBatteryVoltage returns a battery voltage Reading in millivolts.
func NewBatteryVoltage(millivolts uint16) Reading {
	return Reading{Kind: KindBatteryVoltage, Number: millivolts}
}

// NewPumpTrigger returns the pump trigger decision as a Reading.
func NewPumpTrigger(enabled bool) Reading {
	return Reading{Kind: KindPumpTrigger, Enabled: enabled}
}

// ClampMoisture clamps a raw soil moisture value to the calibration window.
func ClampMoisture(raw uint16) uint16 {
	if raw < MoistureMin {
		return MoistureMin
	}
	if raw > MoistureMax {
		return MoistureMax
	}
	return raw
}

// NormalizedWetness maps a raw soil moisture value to [0,1], with 1
// representing water and 0 representing air.
func NormalizedWetness(raw uint16) float64 {
	clamped := ClampMoisture(raw)
	return float64(MoistureMax-clamped) / float64(MoistureMax-MoistureMin)
}

// ClassifyMoisture derives the qualitative soil moisture level from a raw
// ADC value.
func ClassifyMoisture(raw uint16) MoistureLevel {
	switch w := NormalizedWetness(raw); {
	case w > moistureWetThreshold:
		return MoistureWet
	case w < moistureDryThreshold:
		return MoistureDry
	default:
		return MoistureMoist
	}
}

// ClassifyWaterLevel derives the drainage tray state from a raw ADC value.
func ClassifyWaterLevel(raw uint16) WaterLevel {
	if raw < WaterLevelThreshold {
		return WaterEmpty
	}
	return WaterFull
}

// Topic returns the stable topic key for the reading.
func (r Reading) Topic() string {
	switch r.Kind {
	case KindAirTemperature:
		return "temperature"
	case KindAirHumidity:
		return "humidity"
	case KindSoilMoisture:
		return "moisture"
	case KindWaterLevel:
		return "waterlevel"
	case KindBatteryVoltage:
		return "batteryvoltage"
	case KindSoilMoistureRaw:
		return "moistureraw"
	case KindPumpTrigger:
		return "pumptrigger"
	}
	return "unknown"
}

// Name returns the human-readable sensor name.
func (r Reading) Name() string {
	switch r.Kind {
	case KindAirTemperature:
		return "Room temperature"
	case KindAirHumidity:
		return "Room humidity"
	case KindSoilMoisture:
		return "Soil moisture"
	case KindWaterLevel:
		return "Water level"
	case KindBatteryVoltage:
		return "Battery voltage"
	case KindSoilMoistureRaw:
		return "Soil moisture (mV)"
	case KindPumpTrigger:
		return "Pump trigger"
	}
	return "Unknown"
}

// Unit returns the physical unit of the reading, or "" if it has none.
func (r Reading) Unit() string {
	switch r.Kind {
	case KindAirTemperature:
		return "°C"
	case KindAirHumidity:
		return "%"
	case KindBatteryVoltage, KindSoilMoistureRaw:
		return "mV"
	}
	return ""
}

// DeviceClass returns the Home Assistant device class for the reading, or ""
// if it has none.
// See https://www.home-assistant.io/integrations/sensor/#device-class
func (r Reading) DeviceClass() string {
	switch r.Kind {
	case KindAirTemperature:
		return "temperature"
	case KindAirHumidity:
		return "humidity"
	case KindBatteryVoltage, KindSoilMoistureRaw:
		return "voltage"
	}
	return ""
}

// Value returns the reading value rendered as a string.
func (r Reading) Value() string {
	switch r.Kind {
	case KindSoilMoisture:
		return string(r.Moisture)
	case KindWaterLevel:
		return string(r.Water)
	case KindPumpTrigger:
		return strconv.FormatBool(r.Enabled)
	default:
		return strconv.Itoa(int(r.Number))
	}
}

// String renders the reading as "name: value unit".
func (r Reading) String() string {
	if unit := r.Unit(); unit != "" {
		return fmt.Sprintf("%s: %s %s", r.Name(), r.Value(), unit)
	}
	return fmt.Sprintf("%s: %s", r.Name(), r.Value())
}

// MaxBatchSize is the number of reading slots in a batch, one per sensor kind.
const MaxBatchSize = 7

// Batch is the insertion-ordered set of readings produced by one acquisition
// cycle. Publish reports whether the batch holds enough valid data (at least
// one valid battery sample) to be worth transmitting.
type Batch struct {
	Readings []Reading
	Publish  bool
}

// Append adds a reading to the batch. Appending beyond MaxBatchSize is
// silently ignored; a cycle produces at most one reading per kind.
func (b *Batch) Append(r Reading) {
	if len(b.Readings) >= MaxBatchSize {
		return
	}
	b.Readings = append(b.Readings, r)
}

// Find returns the first reading of the given kind, if present.
func (b Batch) Find(kind Kind) (Reading, bool) {
	for _, r := range b.Readings {
		if r.Kind == kind {
			return r, true
		}
	}
	return Reading{}, false
}

// String renders the batch as multi-line display text, one reading per line.
func (b Batch) String() string {
	var sb strings.Builder
	for _, r := range b.Readings {
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
