//go:build !linux

package dht11

import (
	"errors"
	"time"
)

// RealWire is not available on non-Linux platforms.
type RealWire struct{}

// NewRealWire returns an error on non-Linux platforms.
func NewRealWire(chip string, pin int) (*RealWire, error) {
	return nil, errors.New("dht11: not supported on this platform (requires Linux)")
}

// Release is not implemented on non-Linux platforms.
func (w *RealWire) Release() error { return errors.New("dht11: not supported") }

// DriveLow is not implemented on non-Linux platforms.
func (w *RealWire) DriveLow() error { return errors.New("dht11: not supported") }

// Level is not implemented on non-Linux platforms.
func (w *RealWire) Level() (bool, error) { return false, errors.New("dht11: not supported") }

// Close is not implemented on non-Linux platforms.
func (w *RealWire) Close() error { return nil }

// SpinDelay implements Delay with plain sleeps.
type SpinDelay struct{}

// Sleep waits for the given duration.
func (SpinDelay) Sleep(d time.Duration) { time.Sleep(d) }
