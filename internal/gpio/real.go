//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives a GPIO line on actual hardware using the Linux GPIO
// character device.
type RealOutput struct {
	line *gpiocdev.Line
}

// NewRealOutput requests the given pin as an output, initially low.
func NewRealOutput(chip string, pin int) (*RealOutput, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealOutput{line: line}, nil
}

// Set drives the line high or low.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// Close drives the line low and releases it. Leaving a rail or relay
// energized across a restart wastes battery and degrades resistive probes.
func (o *RealOutput) Close() error {
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("drive low: %w", err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close line: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
