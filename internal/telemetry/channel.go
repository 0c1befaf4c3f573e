package telemetry

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Send once the consumer has torn the channel down.
var ErrClosed = errors.New("telemetry: channel closed")

// Channel is a single-producer/single-consumer sample queue. Neither side
// ever blocks: Send enqueues immediately and TryReceive returns at once.
//
// A positive capacity bounds the queue; when it is full the oldest sample is
// dropped so the consumer always sees the freshest state. A capacity of zero
// leaves the queue unbounded, so a producer that outpaces the consumer grows
// it without limit.
type Channel struct {
	mu       sync.Mutex
	queue    []Sample
	capacity int
	dropped  uint64
	closed   bool
}

// NewChannel creates a channel. capacity <= 0 selects the unbounded queue.
func NewChannel(capacity int) *Channel {
	if capacity < 0 {
		capacity = 0
	}
	c := &Channel{capacity: capacity}
	if capacity > 0 {
		c.queue = make([]Sample, 0, capacity)
	}
	return c
}

// Send enqueues s. It returns ErrClosed if the consumer has closed the channel.
func (c *Channel) Send(s Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.capacity > 0 && len(c.queue) >= c.capacity {
		// Shift in place so the bounded queue never reallocates.
		copy(c.queue, c.queue[1:])
		c.queue = c.queue[:len(c.queue)-1]
		c.dropped++
	}
	c.queue = append(c.queue, s)
	return nil
}

// TryReceive returns the oldest unconsumed sample, or false when the queue is
// empty or closed.
func (c *Channel) TryReceive() (Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Sample{}, false
	}
	s := c.queue[0]
	if c.capacity > 0 {
		copy(c.queue, c.queue[1:])
		c.queue = c.queue[:len(c.queue)-1]
	} else {
		c.queue[0] = Sample{}
		c.queue = c.queue[1:]
	}
	return s, true
}

// Close tears down the consumer side. Pending samples are discarded and any
// later Send fails with ErrClosed. Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.queue = nil
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len returns the number of queued samples.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Cap returns the configured bound, 0 meaning unbounded.
func (c *Channel) Cap() int {
	return c.capacity
}

// Dropped returns how many samples were discarded on overflow.
func (c *Channel) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
