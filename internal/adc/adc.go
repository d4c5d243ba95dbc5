// Package adc provides analog-to-digital conversion with hardware
// abstraction. The real implementation reads the Linux IIO sysfs interface;
// the fake implementation allows testing without hardware.
package adc

// Channel identifies one analog input.
type Channel int

const (
	ChannelBattery Channel = iota
	ChannelMoisture
	ChannelWaterLevel
)

// String returns the channel name used in log messages.
func (c Channel) String() string {
	switch c {
	case ChannelBattery:
		return "battery"
	case ChannelMoisture:
		return "moisture"
	case ChannelWaterLevel:
		return "water_level"
	}
	return "unknown"
}

// Reader reads raw ADC values.
type Reader interface {
	// Read returns the current raw value of the given channel.
	Read(ch Channel) (uint16, error)

	// Close releases ADC resources.
	Close() error
}
