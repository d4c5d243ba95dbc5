package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/hollis/plant-sensor/internal/reading"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	outboxCapacity = 64
)

// RealClient publishes to an actual MQTT broker. Messages produced while the
// connection is down are queued and replayed on reconnect.
type RealClient struct {
	client   paho.Client
	deviceID string

	mu  sync.Mutex
	box *outbox
}

// NewRealClient creates a client connected to the given broker.
func NewRealClient(broker, deviceID string) (*RealClient, error) {
	c := &RealClient{
		deviceID: deviceID,
		box:      newOutbox(outboxCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(deviceID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			c.flushOutbox()
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return c, nil
}

// PublishReading sends one reading to its state topic.
func (c *RealClient) PublishReading(r reading.Reading) error {
	payload, err := FormatReadingPayload(r)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0: the next wake brings a fresh value anyway.
	return c.publish(ReadingTopic(c.deviceID, r), 0, false, payload)
}

// PublishDiscovery sends retained discovery configs for every reading plus
// the pump switch.
func (c *RealClient) PublishDiscovery(readings []reading.Reading) error {
	for _, r := range readings {
		topic, payload, err := DiscoveryConfig(c.deviceID, r)
		if err != nil {
			return err
		}
		if err := c.publish(topic, 0, true, payload); err != nil {
			return fmt.Errorf("publish discovery for %s: %w", r.Topic(), err)
		}
	}

	topic, payload, err := PumpDiscoveryConfig(c.deviceID)
	if err != nil {
		return err
	}
	if err := c.publish(topic, 0, true, payload); err != nil {
		return fmt.Errorf("publish pump discovery: %w", err)
	}
	return nil
}

// PublishPumpState reports the relay state.
func (c *RealClient) PublishPumpState(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	// QoS 1: the switch entity state should survive a flaky link.
	return c.publish(PumpStateTopic(c.deviceID), 1, false, []byte(state))
}

// SubscribePumpCommand registers the remote pump command handler.
func (c *RealClient) SubscribePumpCommand(handler func(enabled bool)) error {
	token := c.client.Subscribe(PumpCommandTopic(c.deviceID), 1, func(_ paho.Client, msg paho.Message) {
		enabled := string(msg.Payload()) == "ON"
		log.Printf("mqtt: pump command %q -> %v", msg.Payload(), enabled)
		handler(enabled)
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe pump command: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // milliseconds
	return nil
}

// publish sends a message, queueing it instead when the connection is down.
func (c *RealClient) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !c.client.IsConnectionOpen() {
		c.mu.Lock()
		c.box.push(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := c.box.len()
		c.mu.Unlock()
		log.Printf("mqtt: broker unreachable, queued message for %s (%d pending)", topic, n)
		return nil
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// flushOutbox replays queued messages after a reconnect.
func (c *RealClient) flushOutbox() {
	c.mu.Lock()
	msgs := c.box.drainAll()
	c.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: reconnected, replaying %d queued messages", len(msgs))
	for _, m := range msgs {
		token := c.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			log.Printf("mqtt: replay to %s failed", m.topic)
		}
	}
}
