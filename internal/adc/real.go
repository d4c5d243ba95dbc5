package adc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultDevice is the sysfs directory of the first IIO ADC.
const DefaultDevice = "/sys/bus/iio/devices/iio:device0"

// Default IIO voltage channel indexes for each logical channel.
const (
	DefaultChannelBattery    = 0
	DefaultChannelMoisture   = 1
	DefaultChannelWaterLevel = 2
)

// IIOReader reads raw samples from a Linux IIO ADC (e.g. an ADS1115 or MCP3008
// hat) via sysfs in_voltageN_raw attributes.
type IIOReader struct {
	device   string
	channels map[Channel]int
}

// NewIIOReader creates a reader for the given IIO device directory, mapping
// logical channels to IIO voltage channel indexes.
func NewIIOReader(device string, channels map[Channel]int) (*IIOReader, error) {
	if _, err := os.Stat(device); err != nil {
		return nil, fmt.Errorf("open iio device %s: %w", device, err)
	}
	return &IIOReader{device: device, channels: channels}, nil
}

// Read reads one raw sample from the channel.
func (r *IIOReader) Read(ch Channel) (uint16, error) {
	index, ok := r.channels[ch]
	if !ok {
		return 0, fmt.Errorf("adc: channel %s not mapped", ch)
	}

	path := fmt.Sprintf("%s/in_voltage%d_raw", r.device, index)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s channel: %w", ch, err)
	}

	value, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s sample: %w", ch, err)
	}
	return uint16(value), nil
}

// Close releases resources. Sysfs reads hold nothing open between samples.
func (r *IIOReader) Close() error { return nil }
