//go:build linux

package dht11

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealWire drives the sensor data line through the Linux GPIO character
// device. The line is held as input (released) between operations and
// reconfigured to open-drain output-low to drive the start signal.
type RealWire struct {
	line *gpiocdev.Line
}

// NewRealWire requests the data line on the given chip and pin.
func NewRealWire(chip string, pin int) (*RealWire, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request dht11 pin %d: %w", pin, err)
	}
	return &RealWire{line: line}, nil
}

// Release reconfigures the line as input so the pull-up raises it.
func (w *RealWire) Release() error {
	return w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
}

// DriveLow reconfigures the line as open-drain output driving low.
func (w *RealWire) DriveLow() error {
	return w.line.Reconfigure(gpiocdev.AsOutput(0), gpiocdev.AsOpenDrain)
}

// Level reads the current line state.
func (w *RealWire) Level() (bool, error) {
	v, err := w.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Close releases the line, leaving it as input with pull-up so the sensor
// stays idle.
func (w *RealWire) Close() error {
	if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		w.line.Close()
		return fmt.Errorf("reconfigure dht11 pin: %w", err)
	}
	return w.line.Close()
}

// SpinDelay implements Delay for real hardware. Sub-millisecond sleeps are
// unreliable on a non-realtime kernel, so short waits spin instead.
type SpinDelay struct{}

// Sleep waits for the given duration.
func (SpinDelay) Sleep(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	end := time.Now().Add(d)
	for time.Now().Before(end) {
	}
}
