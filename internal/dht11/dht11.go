// Package dht11 decodes the DHT11 single-wire temperature/humidity protocol.
// The sensor shares one bidirectional data line with the host: the host
// requests a reading by pulling the line low, then the sensor clocks out 40
// bits encoded in the relative duration of high pulses.
package dht11

import (
	"errors"
	"fmt"
	"time"
)

// Pulse-wait budget: poll in pollStep increments, give up after timeoutPolls
// iterations (~1ms). This bounds worst-case blocking of the acquisition task.
const (
	pollStep     = time.Microsecond
	timeoutPolls = 1000
)

// Protocol timing from the datasheet.
const (
	settleHigh     = time.Millisecond      // release before the start signal
	startSignalLow = 20 * time.Millisecond // >=18ms low requests a reading
	startGuard     = 40 * time.Microsecond // release before the acknowledgement
)

var (
	// ErrTimeout means the sensor did not produce an expected pulse in time.
	ErrTimeout = errors.New("dht11: timeout waiting for pulse")

	// ErrChecksum means a full frame arrived but its checksum did not match.
	ErrChecksum = errors.New("dht11: checksum mismatch")
)

// Wire is the open-drain data line shared with the sensor. The line must
// support both output-low drive and released (input) sensing.
type Wire interface {
	// Release stops driving the line, letting the pull-up raise it.
	Release() error

	// DriveLow pulls the line low.
	DriveLow() error

	// Level reports whether the line currently reads high.
	Level() (bool, error)
}

// Delay sleeps between protocol steps. Injected so tests run without real
// waits.
type Delay interface {
	Sleep(d time.Duration)
}

// Measurement is one decoded sensor reading.
type Measurement struct {
	// Temperature in whole °C.
	Temperature uint8
	// Humidity in whole percent.
	Humidity uint8
}

// Decoder reads measurements from a DHT11 on the given wire.
type Decoder struct {
	wire  Wire
	delay Delay
}

// New creates a decoder for the given wire.
func New(wire Wire, delay Delay) *Decoder {
	return &Decoder{wire: wire, delay: delay}
}

// Read performs one full reading: handshake, 40 data bits, checksum.
// A failed read leaves no partial state behind; callers retry or skip the
// sensor for this cycle.
func (d *Decoder) Read() (Measurement, error) {
	var data [5]byte

	if err := d.handshake(); err != nil {
		return Measurement{}, err
	}

	for i := 0; i < 40; i++ {
		bit, err := d.readBit()
		if err != nil {
			return Measurement{}, err
		}
		data[i/8] <<= 1
		if bit {
			data[i/8] |= 1
		}
	}

	// Wait for the line to go idle again.
	if _, err := d.waitForPulse(true); err != nil {
		return Measurement{}, err
	}

	// Wrapping sum of the four payload bytes.
	sum := data[0] + data[1] + data[2] + data[3]
	if sum != data[4] {
		return Measurement{}, ErrChecksum
	}

	return Measurement{
		Humidity:    data[0],
		Temperature: data[2],
	}, nil
}

// handshake sends the start signal and consumes the sensor's 80µs-low /
// 80µs-high acknowledgement pulse.
func (d *Decoder) handshake() error {
	if err := d.wire.Release(); err != nil {
		return fmt.Errorf("dht11: release line: %w", err)
	}
	d.delay.Sleep(settleHigh)

	if err := d.wire.DriveLow(); err != nil {
		return fmt.Errorf("dht11: drive start signal: %w", err)
	}
	d.delay.Sleep(startSignalLow)

	if err := d.wire.Release(); err != nil {
		return fmt.Errorf("dht11: release after start: %w", err)
	}
	d.delay.Sleep(startGuard)

	// The acknowledgement has the same low/high shape as a data bit.
	_, err := d.readBit()
	return err
}

// readBit measures one low pulse and the following high pulse; a high pulse
// longer than the low pulse encodes a 1.
func (d *Decoder) readBit() (bool, error) {
	low, err := d.waitForPulse(true)
	if err != nil {
		return false, err
	}
	high, err := d.waitForPulse(false)
	if err != nil {
		return false, err
	}
	return high > low, nil
}

// waitForPulse polls until the line reads the given level, returning the
// number of polls spent waiting.
func (d *Decoder) waitForPulse(level bool) (int, error) {
	count := 0
	for {
		cur, err := d.wire.Level()
		if err != nil {
			return 0, fmt.Errorf("dht11: sense line: %w", err)
		}
		if cur == level {
			return count, nil
		}
		count++
		if count > timeoutPolls {
			return 0, ErrTimeout
		}
		d.delay.Sleep(pollStep)
	}
}
