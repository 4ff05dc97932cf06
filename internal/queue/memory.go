package queue

import (
	"context"
	"fmt"
	"sync"
)

const memoryBuffer = 1024

// MemoryQueue delivers within the process. Each subject owns a buffered
// channel, so events published before the listener attaches are kept.
type MemoryQueue struct {
	mu      sync.Mutex
	closed  bool
	buffers map[string]chan Message
	subs    *consumers
}

func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		buffers: make(map[string]chan Message),
		subs:    newConsumers(),
	}
}

func (q *MemoryQueue) buffer(subject string) (chan Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}
	ch, ok := q.buffers[subject]
	if !ok {
		ch = make(chan Message, memoryBuffer)
		q.buffers[subject] = ch
	}
	return ch, nil
}

// Publish never blocks: a full buffer is an error.
func (q *MemoryQueue) Publish(ctx context.Context, subject string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, err := q.buffer(subject)
	if err != nil {
		return err
	}

	select {
	case ch <- msg.clone():
		return nil
	default:
		return fmt.Errorf("memory queue full for subject %s (%d pending)", subject, memoryBuffer)
	}
}

// Subscribe drains the subject's buffer. Handler errors drop the message.
func (q *MemoryQueue) Subscribe(subject string, handler Handler) error {
	return q.subs.add(subject, func() (func(), error) {
		ch, err := q.buffer(subject)
		if err != nil {
			return nil, err
		}
		return goLoop(func(ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					_ = handler(msg)
				}
			}
		}), nil
	})
}

func (q *MemoryQueue) Unsubscribe(subject string) error {
	return q.subs.remove(subject)
}

// Close stops the subscribers and waits for in-flight handlers.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.subs.shutdown()
	return nil
}

// Pending reports messages buffered for subject and not yet handled.
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buffers[subject])
}
