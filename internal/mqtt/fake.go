package mqtt

import (
	"sync"

	"github.com/hollis/plant-sensor/internal/reading"
)

// FakeClient records published messages for test assertions.
type FakeClient struct {
	mu sync.Mutex

	// Readings contains every reading passed to PublishReading.
	Readings []reading.Reading

	// DiscoveryBatches contains the reading slices passed to PublishDiscovery.
	DiscoveryBatches [][]reading.Reading

	// PumpStates contains every state passed to PublishPumpState.
	PumpStates []bool

	// CommandHandler is the handler registered by SubscribePumpCommand;
	// tests call it to inject remote commands.
	CommandHandler func(enabled bool)

	// PublishError, if set, is returned by the publish methods.
	PublishError error

	// SubscribeError, if set, is returned by SubscribePumpCommand.
	SubscribeError error

	// Connected controls IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeClient creates a connected FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{Connected: true}
}

// PublishReading records the reading.
func (f *FakeClient) PublishReading(r reading.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Readings = append(f.Readings, r)
	return nil
}

// PublishDiscovery records the discovery batch.
func (f *FakeClient) PublishDiscovery(readings []reading.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	batch := make([]reading.Reading, len(readings))
	copy(batch, readings)
	f.DiscoveryBatches = append(f.DiscoveryBatches, batch)
	return nil
}

// PublishPumpState records the state.
func (f *FakeClient) PublishPumpState(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.PumpStates = append(f.PumpStates, on)
	return nil
}

// SubscribePumpCommand captures the handler.
func (f *FakeClient) SubscribePumpCommand(handler func(enabled bool)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.CommandHandler = handler
	return nil
}

// IsConnected reports the configured connection state.
func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// PublishedReadings returns a copy of the recorded readings.
func (f *FakeClient) PublishedReadings() []reading.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]reading.Reading, len(f.Readings))
	copy(out, f.Readings)
	return out
}

// Reset clears recorded state.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Readings = nil
	f.DiscoveryBatches = nil
	f.PumpStates = nil
	f.CommandHandler = nil
	f.PublishError = nil
	f.SubscribeError = nil
	f.Closed = false
	f.Connected = true
}
