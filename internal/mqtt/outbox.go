package mqtt

import "log"

// queuedMsg stores a serialized message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO holding messages produced while the broker
// is unreachable. When full, the oldest message is dropped: on a device that
// sleeps between batches, fresh readings are worth more than stale ones.
// Not safe for concurrent use — the client synchronizes around it.
type outbox struct {
	buf      []queuedMsg
	capacity int
	head     int // next write position
	count    int
	dropped  bool // a message was dropped since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		buf:      make([]queuedMsg, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg queuedMsg) {
	if o.count == o.capacity {
		if !o.dropped {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.capacity)
			o.dropped = true
		}
		// head already points at the oldest entry
		o.buf[o.head] = msg
		o.head = (o.head + 1) % o.capacity
		return
	}
	o.buf[o.head] = msg
	o.head = (o.head + 1) % o.capacity
	o.count++
}

// drainAll returns the queued messages oldest-first and empties the outbox.
func (o *outbox) drainAll() []queuedMsg {
	if o.count == 0 {
		return nil
	}

	msgs := make([]queuedMsg, o.count)
	start := (o.head - o.count + o.capacity) % o.capacity
	for i := 0; i < o.count; i++ {
		msgs[i] = o.buf[(start+i)%o.capacity]
	}

	o.count = 0
	o.head = 0
	o.dropped = false
	return msgs
}

func (o *outbox) len() int {
	return o.count
}
