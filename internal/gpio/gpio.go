// Package gpio provides GPIO output driving with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Output drives a single GPIO output line (a sensor power rail or the pump
// relay coil).
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error

	// Close releases GPIO resources, driving the line low first.
	Close() error
}

// Pin definitions (BCM numbering), matching the reference wiring.
const (
	DefaultPinDHT11         = 4  // one-wire temperature/humidity data line
	DefaultPinMoisturePower = 17 // soil moisture sensor power rail
	DefaultPinWaterPower    = 27 // drainage water sensor power rail
	DefaultPinRelay         = 22 // pump relay coil
)
