package adc

import "errors"

// FakeReader is a test double returning scripted per-channel samples.
type FakeReader struct {
	// Samples contains scripted values per channel. Each Read consumes the
	// next sample for that channel; when a channel's samples are exhausted
	// the last one repeats.
	Samples map[Channel][]uint16

	index map[Channel]int

	// Errors, if set for a channel, is returned by Read for that channel.
	Errors map[Channel]error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeReader creates a FakeReader with the given per-channel samples.
func NewFakeReader(samples map[Channel][]uint16) *FakeReader {
	return &FakeReader{
		Samples: samples,
		index:   make(map[Channel]int),
	}
}

// Read returns the next scripted sample for the channel.
func (f *FakeReader) Read(ch Channel) (uint16, error) {
	if err := f.Errors[ch]; err != nil {
		return 0, err
	}

	samples := f.Samples[ch]
	if len(samples) == 0 {
		return 0, errors.New("adc: no samples configured for " + ch.String())
	}

	i := f.index[ch]
	if i < len(samples)-1 {
		f.index[ch] = i + 1
	}
	return samples[i], nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds all channels.
func (f *FakeReader) Reset() {
	f.index = make(map[Channel]int)
	f.Closed = false
}
