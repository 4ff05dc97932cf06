// Package queue carries form notifications over NATS JetStream, Redis
// Streams, Kafka or an in-process channel.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Headers set on form events.
const (
	HeaderKind      = "Searchforms-Kind"
	HeaderRequestID = "Searchforms-Request-Id"
)

var (
	ErrClosed        = errors.New("queue closed")
	ErrSubscribed    = errors.New("already subscribed")
	ErrNotSubscribed = errors.New("not subscribed")
)

// Message is one queue entry. Messages sharing a Key keep their relative
// order on backends that partition (Kafka); form events use the form id.
type Message struct {
	Key     string
	Headers map[string]string
	Data    []byte
}

// Header returns the named header or "".
func (m Message) Header(name string) string {
	return m.Headers[name]
}

func (m Message) clone() Message {
	out := Message{Key: m.Key, Data: append([]byte(nil), m.Data...)}
	if len(m.Headers) > 0 {
		out.Headers = make(map[string]string, len(m.Headers))
		for k, v := range m.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

// Handler processes one delivered message. A returned error leaves the
// message unacknowledged where the backend redelivers.
type Handler func(Message) error

type Publisher interface {
	Publish(ctx context.Context, subject string, msg Message) error
	Close() error
}

type Subscriber interface {
	// Subscribe starts delivering subject to handler. One handler per subject.
	Subscribe(subject string, handler Handler) error
	Unsubscribe(subject string) error
	Close() error
}

// Queue is a backend that can both publish and subscribe.
type Queue interface {
	Publisher
	Subscriber
}

// consumers tracks the stop function of each active subscription.
type consumers struct {
	mu     sync.Mutex
	closed bool
	stops  map[string]func()
}

func newConsumers() *consumers {
	return &consumers{stops: make(map[string]func())}
}

// add runs start while holding the lock so two subscriptions to one subject
// cannot race.
func (c *consumers) add(subject string, start func() (stop func(), err error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, ok := c.stops[subject]; ok {
		return fmt.Errorf("%w: %s", ErrSubscribed, subject)
	}
	stop, err := start()
	if err != nil {
		return err
	}
	c.stops[subject] = stop
	return nil
}

func (c *consumers) remove(subject string) error {
	c.mu.Lock()
	stop, ok := c.stops[subject]
	delete(c.stops, subject)
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	stop()
	return nil
}

// shutdown stops every subscription. It reports false when already closed.
func (c *consumers) shutdown() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	stops := c.stops
	c.stops = map[string]func(){}
	c.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	return true
}

// goLoop runs loop until the returned stop is called; stop waits for it.
func goLoop(loop func(ctx context.Context)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
