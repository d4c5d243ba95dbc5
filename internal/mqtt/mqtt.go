// Package mqtt publishes sensor readings and receives pump commands, with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/hollis/plant-sensor/internal/reading"
)

// DefaultDeviceID is the device identifier used in topics and discovery
// unique ids.
const DefaultDeviceID = "plant_sensor"

// Home Assistant discovery topic layout.
const (
	discoveryPrefix = "homeassistant"
	discoverySensor = "sensor"
	discoverySwitch = "switch"
)

// Client is the broker-side reporting surface.
type Client interface {
	// PublishReading sends one reading to its per-sensor topic.
	PublishReading(r reading.Reading) error

	// PublishDiscovery announces every reading's sensor entity plus the pump
	// switch entity as retained Home Assistant discovery configs.
	PublishDiscovery(readings []reading.Reading) error

	// PublishPumpState reports the pump relay state.
	PublishPumpState(on bool) error

	// SubscribePumpCommand registers a handler for remote pump commands
	// ("ON"/"OFF" payloads).
	SubscribePumpCommand(handler func(enabled bool)) error

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// ReadingTopic returns the state topic for a reading.
func ReadingTopic(deviceID string, r reading.Reading) string {
	return deviceID + "/" + r.Topic()
}

// PumpStateTopic returns the pump state topic.
func PumpStateTopic(deviceID string) string {
	return deviceID + "/pump/state"
}

// PumpCommandTopic returns the topic remote pump commands arrive on.
func PumpCommandTopic(deviceID string) string {
	return deviceID + "/pump/command"
}

// valuePayload is the per-sensor message body.
type valuePayload struct {
	Value string `json:"value"`
}

// FormatReadingPayload renders the JSON body for a reading's state topic.
func FormatReadingPayload(r reading.Reading) ([]byte, error) {
	return json.Marshal(valuePayload{Value: r.Value()})
}

// discoveryPayload is a Home Assistant discovery config.
// See https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
type discoveryPayload struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	Device            deviceInfo `json:"device"`
	StateTopic        string     `json:"state_topic"`
	ValueTemplate     string     `json:"value_template,omitempty"`
	DeviceClass       string     `json:"device_class,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	CommandTopic      string     `json:"command_topic,omitempty"`
	PayloadOn         string     `json:"payload_on,omitempty"`
	PayloadOff        string     `json:"payload_off,omitempty"`
}

type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

func commonDeviceInfo(deviceID, topic, name string) discoveryPayload {
	return discoveryPayload{
		Name:     name,
		UniqueID: fmt.Sprintf("%s_%s", deviceID, topic),
		Device: deviceInfo{
			Identifiers:  []string{deviceID},
			Name:         "Plant sensor",
			Model:        "plant-sensor",
			Manufacturer: "hollis",
		},
	}
}

// DiscoveryConfig returns the discovery topic and payload for one reading's
// sensor entity.
func DiscoveryConfig(deviceID string, r reading.Reading) (string, []byte, error) {
	payload := commonDeviceInfo(deviceID, r.Topic(), r.Name())
	payload.StateTopic = ReadingTopic(deviceID, r)
	payload.ValueTemplate = "{{ value_json.value }}"
	payload.DeviceClass = r.DeviceClass()
	payload.UnitOfMeasurement = r.Unit()

	if r.Kind == reading.KindWaterLevel {
		payload.PayloadOn = string(reading.WaterFull)
		payload.PayloadOff = string(reading.WaterEmpty)
	}

	topic := fmt.Sprintf("%s/%s/%s_%s/config", discoveryPrefix, discoverySensor, deviceID, r.Topic())
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode discovery config: %w", err)
	}
	return topic, body, nil
}

// PumpDiscoveryConfig returns the discovery topic and payload for the pump
// switch entity.
func PumpDiscoveryConfig(deviceID string) (string, []byte, error) {
	payload := commonDeviceInfo(deviceID, "pump", "Pump")
	payload.StateTopic = PumpStateTopic(deviceID)
	payload.CommandTopic = PumpCommandTopic(deviceID)
	payload.PayloadOn = "ON"
	payload.PayloadOff = "OFF"

	topic := fmt.Sprintf("%s/%s/%s_pump/config", discoveryPrefix, discoverySwitch, deviceID)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode pump discovery config: %w", err)
	}
	return topic, body, nil
}
