package dht11

import "time"

// FakeWire replays a scripted waveform. Each Level call consumes one sample
// from the script; when the script runs out the line sits at the idle level.
// Pulse lengths only need to be relatively correct, not microsecond-accurate.
type FakeWire struct {
	levels []bool
	pos    int

	// Idle is the level reported once the script is exhausted.
	Idle bool

	// DriveLows and Releases count the host-side line operations.
	DriveLows int
	Releases  int

	// DriveError, if set, is returned by DriveLow and Release.
	DriveError error

	// SenseError, if set, is returned by Level.
	SenseError error
}

// NewFakeWire creates a wire idling high with an empty script.
func NewFakeWire() *FakeWire {
	return &FakeWire{Idle: true}
}

// AppendPulse appends a pulse of the given level lasting the given number of
// poll samples.
func (f *FakeWire) AppendPulse(level bool, polls int) {
	for i := 0; i < polls; i++ {
		f.levels = append(f.levels, level)
	}
}

// Script pulse lengths, in poll samples. A data bit is a fixed-length low
// pulse followed by a high pulse that is longer (1) or shorter (0).
const (
	scriptAckPolls  = 8
	scriptBitLow    = 5
	scriptBitHighT  = 8 // longer than the low pulse: bit 1
	scriptBitHighF  = 2 // shorter than the low pulse: bit 0
	scriptTrailLow = 5
	// Exactly one trailing high sample: the final idle wait consumes it,
	// leaving the script aligned for a following frame.
	scriptTrailHigh = 1
)

// ScriptFrame scripts a complete sensor response for the given 5-byte frame:
// acknowledgement, 40 data bits MSB-first, trailing release.
func (f *FakeWire) ScriptFrame(frame [5]byte) {
	f.AppendPulse(false, scriptAckPolls)
	f.AppendPulse(true, scriptAckPolls)

	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			f.AppendPulse(false, scriptBitLow)
			if b&(1<<uint(bit)) != 0 {
				f.AppendPulse(true, scriptBitHighT)
			} else {
				f.AppendPulse(true, scriptBitHighF)
			}
		}
	}

	f.AppendPulse(false, scriptTrailLow)
	f.AppendPulse(true, scriptTrailHigh)
}

// Release records the release.
func (f *FakeWire) Release() error {
	if f.DriveError != nil {
		return f.DriveError
	}
	f.Releases++
	return nil
}

// DriveLow records the drive.
func (f *FakeWire) DriveLow() error {
	if f.DriveError != nil {
		return f.DriveError
	}
	f.DriveLows++
	return nil
}

// Level returns the next scripted sample.
func (f *FakeWire) Level() (bool, error) {
	if f.SenseError != nil {
		return false, f.SenseError
	}
	if f.pos >= len(f.levels) {
		return f.Idle, nil
	}
	v := f.levels[f.pos]
	f.pos++
	return v, nil
}

// Reset rewinds the script.
func (f *FakeWire) Reset() {
	f.pos = 0
	f.DriveLows = 0
	f.Releases = 0
}

// NopDelay implements Delay without waiting, for tests.
type NopDelay struct {
	// Slept accumulates the requested sleep time.
	Slept time.Duration
}

// Sleep records the requested duration and returns immediately.
func (d *NopDelay) Sleep(dur time.Duration) {
	d.Slept += dur
}
