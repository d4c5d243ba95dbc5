// Command plant-sensor wakes, samples the plant sensors, publishes readings
// to MQTT, decides whether to run the water pump, and hibernates. In
// production an external timer unit restarts the process for the next duty
// cycle; -simulate-sleep keeps it looping in-process instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hollis/plant-sensor/internal/adc"
	"github.com/hollis/plant-sensor/internal/dht11"
	"github.com/hollis/plant-sensor/internal/display"
	"github.com/hollis/plant-sensor/internal/duty"
	"github.com/hollis/plant-sensor/internal/gpio"
	"github.com/hollis/plant-sensor/internal/mqtt"
	"github.com/hollis/plant-sensor/internal/persist"
	"github.com/hollis/plant-sensor/internal/pump"
	"github.com/hollis/plant-sensor/internal/reading"
	"github.com/hollis/plant-sensor/internal/report"
	"github.com/hollis/plant-sensor/internal/sensors"
	"github.com/hollis/plant-sensor/internal/store"
)

// readingQueueDepth bounds the acquisition-to-reporting channel. The producer
// blocks rather than drops when the reporter stalls.
const readingQueueDepth = 3

type options struct {
	broker    string
	deviceID  string
	awake     time.Duration
	period    time.Duration
	samples   int
	stateFile string
	archive   string
	trigger   string
	intervalN uint
	chip      string
	pinDHT    int
	pinMoist  int
	pinWater  int
	pinRelay  int
	adcDevice string
	pumpRun   time.Duration
	simulate  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.deviceID, "device-id", mqtt.DefaultDeviceID, "Device identifier used in topics and discovery")
	flag.DurationVar(&opts.awake, "awake", duty.DefaultAwakeWindow, "Awake window per duty cycle")
	flag.DurationVar(&opts.period, "period", duty.DefaultPeriod, "Total wake-to-wake duty-cycle period")
	flag.IntVar(&opts.samples, "samples", sensors.DefaultSampleCount, "ADC samples per channel per cycle")
	flag.StringVar(&opts.stateFile, "state-file", "/var/lib/plant-sensor/state.json", "Sleep-persistent state file")
	flag.StringVar(&opts.archive, "archive", "/var/lib/plant-sensor/readings.db", "Local reading archive (empty to disable)")
	flag.StringVar(&opts.trigger, "trigger", "moisture", `Pump trigger policy ("moisture" or "interval")`)
	flag.UintVar(&opts.intervalN, "interval-n", 24, "Fire the interval trigger every N boots")
	flag.StringVar(&opts.chip, "chip", "gpiochip0", "GPIO character device chip")
	flag.IntVar(&opts.pinDHT, "pin-dht", gpio.DefaultPinDHT11, "BCM pin for the DHT11 data line")
	flag.IntVar(&opts.pinMoist, "pin-moisture-power", gpio.DefaultPinMoisturePower, "BCM pin for the soil moisture power rail")
	flag.IntVar(&opts.pinWater, "pin-water-power", gpio.DefaultPinWaterPower, "BCM pin for the drainage water power rail")
	flag.IntVar(&opts.pinRelay, "pin-relay", gpio.DefaultPinRelay, "BCM pin for the pump relay")
	flag.StringVar(&opts.adcDevice, "adc-device", adc.DefaultDevice, "IIO ADC sysfs device directory")
	flag.DurationVar(&opts.pumpRun, "pump-run", pump.DefaultRunDuration, "Pump run duration per enable decision")
	flag.BoolVar(&opts.simulate, "simulate-sleep", false, "Sleep in-process and loop instead of exiting to hibernate")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	policy, err := triggerPolicy(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SIGUSR1 stands in for the physical wake button: it cuts a simulated
	// hibernation short.
	wake := make(chan os.Signal, 1)
	signal.Notify(wake, syscall.SIGUSR1)

	stateStore := persist.NewFileStore(opts.stateFile)
	cell := persist.NewCell(persist.State{})

	app := &app{opts: opts, policy: policy, cell: cell}
	ctrl := duty.New(stateStore, cell, opts.awake, opts.period, duty.Hooks{
		Initialize: app.initialize,
		WindDown:   app.windDown,
		Hibernate: func(remaining time.Duration) error {
			return hibernate(ctx, remaining, opts.simulate, wake)
		},
	})

	for {
		if err := ctrl.Run(ctx); err != nil {
			return err
		}
		if !opts.simulate || ctx.Err() != nil {
			return nil
		}
	}
}

func triggerPolicy(opts options) (sensors.TriggerPolicy, error) {
	switch opts.trigger {
	case "moisture":
		return sensors.MoisturePolicy{}, nil
	case "interval":
		return sensors.IntervalPolicy{Every: uint32(opts.intervalN)}, nil
	}
	return nil, fmt.Errorf("unknown trigger policy %q", opts.trigger)
}

// app holds one duty cycle's live resources between the initialize and
// wind-down hooks.
type app struct {
	opts   options
	policy sensors.TriggerPolicy
	cell   *persist.Cell[persist.State]

	client  *mqtt.RealClient
	closers []func() error

	cancelTasks context.CancelFunc
	tasks       sync.WaitGroup
}

// initialize brings up every peripheral and collaborator and spawns the
// acquisition, reporting, and relay tasks. Any error here is fatal: the
// device restarts the whole sequence rather than running half-initialized.
func (a *app) initialize(ctx context.Context) error {
	wire, err := dht11.NewRealWire(a.opts.chip, a.opts.pinDHT)
	if err != nil {
		return fmt.Errorf("init dht11: %w", err)
	}
	a.closers = append(a.closers, wire.Close)

	moisturePower, err := gpio.NewRealOutput(a.opts.chip, a.opts.pinMoist)
	if err != nil {
		return fmt.Errorf("init moisture power rail: %w", err)
	}
	a.closers = append(a.closers, moisturePower.Close)

	waterPower, err := gpio.NewRealOutput(a.opts.chip, a.opts.pinWater)
	if err != nil {
		return fmt.Errorf("init water power rail: %w", err)
	}
	a.closers = append(a.closers, waterPower.Close)

	relayOut, err := gpio.NewRealOutput(a.opts.chip, a.opts.pinRelay)
	if err != nil {
		return fmt.Errorf("init pump relay: %w", err)
	}
	a.closers = append(a.closers, relayOut.Close)

	reader, err := adc.NewIIOReader(a.opts.adcDevice, map[adc.Channel]int{
		adc.ChannelBattery:    adc.DefaultChannelBattery,
		adc.ChannelMoisture:   adc.DefaultChannelMoisture,
		adc.ChannelWaterLevel: adc.DefaultChannelWaterLevel,
	})
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	a.closers = append(a.closers, reader.Close)

	client, err := mqtt.NewRealClient(a.opts.broker, a.opts.deviceID)
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	a.client = client
	a.closers = append(a.closers, client.Close)

	var archive *store.Archive
	if a.opts.archive != "" {
		archive, err = store.Open(a.opts.archive)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
	}

	pumpSig := pump.NewSignal()
	// Remote commands ride the same latest-wins signal as local decisions.
	if err := client.SubscribePumpCommand(pumpSig.Send); err != nil {
		return fmt.Errorf("subscribe pump command: %w", err)
	}

	cfg := sensors.DefaultConfig()
	cfg.SampleCount = a.opts.samples
	acquirer := sensors.New(dht11.New(wire, dht11.SpinDelay{}), reader, moisturePower, waterPower, a.policy, cfg)
	reporter := report.New(client, display.LogDisplay{}, archive, pumpSig, a.cell)
	relay := pump.NewRelay(relayOut, a.opts.pumpRun)

	batches := make(chan reading.Batch, readingQueueDepth)
	bootCount := a.cell.Get().BootCount

	taskCtx, cancel := context.WithCancel(ctx)
	a.cancelTasks = cancel

	a.tasks.Add(3)
	go func() {
		defer a.tasks.Done()
		acquirer.Run(taskCtx, bootCount, batches)
	}()
	go func() {
		defer a.tasks.Done()
		reporter.Run(taskCtx, batches)
	}()
	go func() {
		defer a.tasks.Done()
		relay.Run(taskCtx, pumpSig)
	}()

	log.Printf("started: boot=%d broker=%s awake=%v period=%v trigger=%s",
		bootCount, a.opts.broker, a.opts.awake, a.opts.period, a.opts.trigger)
	return nil
}

// windDown stops the tasks and releases every handle, newest first. The relay
// task drives its output low before returning, so teardown order keeps the
// pump safe.
func (a *app) windDown() {
	if a.cancelTasks != nil {
		a.cancelTasks()
		a.tasks.Wait()
		a.cancelTasks = nil
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("teardown: %v", err)
		}
	}
	a.closers = nil
	a.client = nil
}

// hibernate is the deep-sleep analog. In production the process exits and an
// external timer restarts it after the remaining duration; in simulation it
// sleeps in-process, woken early by SIGUSR1 or shutdown.
func hibernate(ctx context.Context, remaining time.Duration, simulate bool, wake <-chan os.Signal) error {
	if !simulate {
		log.Printf("hibernating: exiting, next wake due in %v", remaining)
		return nil
	}

	log.Printf("hibernating in-process for %v", remaining)
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-wake:
		log.Printf("wake button pressed, cutting hibernation short")
	case <-ctx.Done():
	}
	return nil
}
