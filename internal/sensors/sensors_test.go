package sensors

import (
	"errors"
	"testing"
	"time"

	"github.com/hollis/plant-sensor/internal/adc"
	"github.com/hollis/plant-sensor/internal/dht11"
	"github.com/hollis/plant-sensor/internal/gpio"
	"github.com/hollis/plant-sensor/internal/reading"
)

func testConfig(sampleCount int) Config {
	return Config{
		SampleCount: sampleCount,
		WarmupDelay: time.Millisecond,
		DHTFailures: 3,
		DHTCooldown: time.Millisecond,
	}
}

func dhtFrame(humidity, temperature uint8) [5]byte {
	frame := [5]byte{humidity, 0, temperature, 0, 0}
	frame[4] = frame[0] + frame[1] + frame[2] + frame[3]
	return frame
}

// newTestAcquirer wires an acquirer from fakes with sleeping disabled.
func newTestAcquirer(wire *dht11.FakeWire, reader *adc.FakeReader, moistureRail, waterRail *gpio.FakeOutput, policy TriggerPolicy, cfg Config) *Acquirer {
	a := New(dht11.New(wire, &dht11.NopDelay{}), reader, moistureRail, waterRail, policy, cfg)
	a.sleep = func(time.Duration) {}
	return a
}

func TestAcquireBatchFullCycle(t *testing.T) {
	wire := dht11.NewFakeWire()
	for i := 0; i < 5; i++ {
		wire.ScriptFrame(dhtFrame(55, 23))
	}
	reader := adc.NewFakeReader(map[adc.Channel][]uint16{
		// Near the dry end of the calibration window.
		adc.ChannelMoisture:   {2090, 2092, 2094, 2091, 2093},
		adc.ChannelWaterLevel: {100, 102, 104, 101, 103},
		adc.ChannelBattery:    {1850, 1851, 1852, 1853, 1854},
	})
	a := newTestAcquirer(wire, reader, gpio.NewFakeOutput(), gpio.NewFakeOutput(), MoisturePolicy{}, testConfig(5))

	batch := a.AcquireBatch(1)

	if !batch.Publish {
		t.Error("batch with valid battery samples must publish")
	}
	if len(batch.Readings) != 7 {
		t.Fatalf("batch holds %d readings, want 7: %v", len(batch.Readings), batch.Readings)
	}

	if r, ok := batch.Find(reading.KindAirTemperature); !ok || r.Number != 23 {
		t.Errorf("temperature = %+v", r)
	}
	if r, ok := batch.Find(reading.KindAirHumidity); !ok || r.Number != 55 {
		t.Errorf("humidity = %+v", r)
	}
	if r, ok := batch.Find(reading.KindSoilMoisture); !ok || r.Moisture != reading.MoistureDry {
		t.Errorf("moisture = %+v", r)
	}
	if r, ok := batch.Find(reading.KindWaterLevel); !ok || r.Water != reading.WaterEmpty {
		t.Errorf("water level = %+v", r)
	}
	// Battery divider: raw ~1851 scales to ~3702mV; trimmed mean of
	// {3702, 3704, 3706} is 3704.
	if r, ok := batch.Find(reading.KindBatteryVoltage); !ok || r.Number != 3704 {
		t.Errorf("battery = %+v, want 3704", r)
	}
	// Soil is dry, so the moisture policy requests the pump.
	if r, ok := batch.Find(reading.KindPumpTrigger); !ok || !r.Enabled {
		t.Errorf("pump trigger = %+v, want enabled", r)
	}
}

func TestBatteryChargingFilterRunsBeforeAggregation(t *testing.T) {
	// Raw sequence [1000,1005,1010,4000,1008]: the 4000 sample scales to
	// 8000mV, above the charging threshold, and must be discarded before
	// aggregation rather than trimmed as a statistical outlier. The trimmed
	// mean of the surviving {2000,2010,2020,2016} is (2010+2016)/2 = 2013.
	wire := dht11.NewFakeWire()
	for i := 0; i < 5; i++ {
		wire.ScriptFrame(dhtFrame(50, 20))
	}
	reader := adc.NewFakeReader(map[adc.Channel][]uint16{
		adc.ChannelMoisture:   {1700, 1700, 1700, 1700, 1700},
		adc.ChannelWaterLevel: {100, 100, 100, 100, 100},
		adc.ChannelBattery:    {1000, 1005, 1010, 4000, 1008},
	})
	a := newTestAcquirer(wire, reader, gpio.NewFakeOutput(), gpio.NewFakeOutput(), MoisturePolicy{}, testConfig(5))

	batch := a.AcquireBatch(1)

	r, ok := batch.Find(reading.KindBatteryVoltage)
	if !ok {
		t.Fatal("battery reading missing")
	}
	if r.Number != 2013 {
		t.Errorf("battery = %d, want 2013 (charging sample filtered pre-aggregation)", r.Number)
	}
	if !batch.Publish {
		t.Error("batch should publish, valid battery samples remain")
	}
}

func TestNoValidBatterySamplesBlocksPublish(t *testing.T) {
	wire := dht11.NewFakeWire()
	for i := 0; i < 4; i++ {
		wire.ScriptFrame(dhtFrame(50, 20))
	}
	reader := adc.NewFakeReader(map[adc.Channel][]uint16{
		adc.ChannelMoisture:   {1700, 1700, 1700, 1700},
		adc.ChannelWaterLevel: {100, 100, 100, 100},
		// Every sample scales above the charging threshold.
		adc.ChannelBattery: {3000, 3000, 3000, 3000},
	})
	a := newTestAcquirer(wire, reader, gpio.NewFakeOutput(), gpio.NewFakeOutput(), MoisturePolicy{}, testConfig(4))

	batch := a.AcquireBatch(1)

	if batch.Publish {
		t.Error("batch without battery state must not publish")
	}
	if _, ok := batch.Find(reading.KindBatteryVoltage); ok {
		t.Error("battery reading present despite all samples discarded")
	}
	// The rest of the cycle still happened.
	if _, ok := batch.Find(reading.KindSoilMoisture); !ok {
		t.Error("moisture reading missing")
	}
	if _, ok := batch.Find(reading.KindPumpTrigger); !ok {
		t.Error("pump trigger missing")
	}
}

func TestDHTFailureBudgetBounded(t *testing.T) {
	wire := dht11.NewFakeWire()
	wire.Idle = false // stuck line: every read times out

	reader := adc.NewFakeReader(map[adc.Channel][]uint16{
		adc.ChannelMoisture:   {1700, 1700, 1700, 1700, 1700, 1700},
		adc.ChannelWaterLevel: {100, 100, 100, 100, 100, 100},
		adc.ChannelBattery:    {1850, 1850, 1850, 1850, 1850, 1850},
	})
	a := newTestAcquirer(wire, reader, gpio.NewFakeOutput(), gpio.NewFakeOutput(), MoisturePolicy{}, testConfig(6))

	batch := a.AcquireBatch(1)

	// Three failed attempts, then the sensor is skipped for the cycle.
	if wire.DriveLows != 3 {
		t.Errorf("dht attempted %d times, want 3", wire.DriveLows)
	}
	if _, ok := batch.Find(reading.KindAirTemperature); ok {
		t.Error("temperature reading present despite decoder failure")
	}
	if _, ok := batch.Find(reading.KindAirHumidity); ok {
		t.Error("humidity reading present despite decoder failure")
	}
	// A failed decode must not corrupt the rest of the batch.
	if !batch.Publish {
		t.Error("battery is valid, batch should still publish")
	}
}

func TestRailsPowerGatedPerIteration(t *testing.T) {
	wire := dht11.NewFakeWire()
	for i := 0; i < 3; i++ {
		wire.ScriptFrame(dhtFrame(50, 20))
	}
	moistureRail := gpio.NewFakeOutput()
	waterRail := gpio.NewFakeOutput()
	reader := adc.NewFakeReader(map[adc.Channel][]uint16{
		adc.ChannelMoisture:   {1700, 1700, 1700},
		adc.ChannelWaterLevel: {100, 100, 100},
		adc.ChannelBattery:    {1850, 1850, 1850},
	})
	a := newTestAcquirer(wire, reader, moistureRail, waterRail, MoisturePolicy{}, testConfig(3))

	a.AcquireBatch(1)

	for _, rail := range []*gpio.FakeOutput{moistureRail, waterRail} {
		history := rail.History()
		if len(history) != 6 {
			t.Fatalf("rail saw %d transitions, want on/off per iteration (6)", len(history))
		}
		for i, v := range history {
			if v != (i%2 == 0) {
				t.Errorf("transition %d = %v, want alternating on/off", i, v)
			}
		}
		if rail.Level() {
			t.Error("rail left energized after cycle")
		}
	}
}

func TestFailedChannelOmittedNotFatal(t *testing.T) {
	wire := dht11.NewFakeWire()
	for i := 0; i < 3; i++ {
		wire.ScriptFrame(dhtFrame(50, 20))
	}
	reader := adc.NewFakeReader(map[adc.Channel][]uint16{
		adc.ChannelWaterLevel: {100, 100, 100},
		adc.ChannelBattery:    {1850, 1850, 1850},
	})
	reader.Errors = map[adc.Channel]error{adc.ChannelMoisture: errors.New("open circuit")}
	a := newTestAcquirer(wire, reader, gpio.NewFakeOutput(), gpio.NewFakeOutput(), MoisturePolicy{}, testConfig(3))

	batch := a.AcquireBatch(1)

	if _, ok := batch.Find(reading.KindSoilMoisture); ok {
		t.Error("moisture reading present despite channel failure")
	}
	if _, ok := batch.Find(reading.KindWaterLevel); !ok {
		t.Error("water level missing, cycle should have continued")
	}
	// No valid moisture aggregate: the moisture policy must not fire.
	if r, ok := batch.Find(reading.KindPumpTrigger); !ok || r.Enabled {
		t.Errorf("pump trigger = %+v, want present and disabled", r)
	}
}

func TestMoisturePolicy(t *testing.T) {
	p := MoisturePolicy{}
	if !p.Trigger(TriggerInput{Moisture: reading.MoistureDry, MoistureValid: true}) {
		t.Error("dry soil should trigger")
	}
	if p.Trigger(TriggerInput{Moisture: reading.MoistureMoist, MoistureValid: true}) {
		t.Error("moist soil should not trigger")
	}
	if p.Trigger(TriggerInput{Moisture: reading.MoistureDry, MoistureValid: false}) {
		t.Error("invalid aggregate should not trigger")
	}
}

func TestIntervalPolicy(t *testing.T) {
	p := IntervalPolicy{Every: 6}
	for boot, want := range map[uint32]bool{0: true, 1: false, 5: false, 6: true, 12: true} {
		if got := p.Trigger(TriggerInput{BootCount: boot}); got != want {
			t.Errorf("boot %d: trigger = %v, want %v", boot, got, want)
		}
	}
	zero := IntervalPolicy{}
	if zero.Trigger(TriggerInput{BootCount: 0}) {
		t.Error("zero interval must never trigger")
	}
}
