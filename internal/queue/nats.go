package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/intrigue/searchforms/internal/utils"
	"github.com/nats-io/nats.go"
)

// headerKey carries Message.Key, which NATS has no field for.
const headerKey = "Searchforms-Key"

// eventRetention is how long JetStream keeps form events.
const eventRetention = 7 * 24 * time.Hour

// NATSQueue publishes form events to JetStream, one stream per subject.
type NATSQueue struct {
	conn     *nats.Conn
	js       nats.JetStreamContext
	ownsConn bool
	subs     *consumers
}

func newNATSQueue(url, username, password string) (*NATSQueue, error) {
	opts := []nats.Option{
		nats.Name(utils.StreamPrefix),
		nats.MaxReconnects(-1),
	}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	q, err := newNATSQueueWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	q.ownsConn = true
	return q, nil
}

// newNATSQueueWithConn borrows conn; Close leaves it open.
func newNATSQueueWithConn(conn *nats.Conn) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("open JetStream context: %w", err)
	}
	return &NATSQueue{conn: conn, js: js, subs: newConsumers()}, nil
}

// streamName maps "forms.events" to "searchforms-forms_events".
func streamName(subject string) string {
	return utils.StreamPrefix + "-" + jetStreamName(subject)
}

func durableName(subject string) string {
	return utils.StreamPrefix + "-listener-" + jetStreamName(subject)
}

// jetStreamName keeps letters, digits, '-' and '_'.
func jetStreamName(subject string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, subject)
}

func (q *NATSQueue) ensureStream(subject string) error {
	name := streamName(subject)
	if _, err := q.js.StreamInfo(name); err == nil {
		return nil
	}

	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
		MaxAge:   eventRetention,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

// Publish waits for the JetStream ack. Key and headers travel as NATS
// headers.
func (q *NATSQueue) Publish(ctx context.Context, subject string, msg Message) error {
	if err := q.ensureStream(subject); err != nil {
		return err
	}

	out := nats.NewMsg(subject)
	out.Data = msg.Data
	for name, value := range msg.Headers {
		out.Header.Set(name, value)
	}
	if msg.Key != "" {
		out.Header.Set(headerKey, msg.Key)
	}

	if _, err := q.js.PublishMsg(out, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches a durable consumer. Failed messages are nak'ed and
// redelivered up to three times.
func (q *NATSQueue) Subscribe(subject string, handler Handler) error {
	return q.subs.add(subject, func() (func(), error) {
		if err := q.ensureStream(subject); err != nil {
			return nil, err
		}

		sub, err := q.js.Subscribe(subject, func(in *nats.Msg) {
			if handler(fromNATS(in)) != nil {
				_ = in.Nak()
				return
			}
			_ = in.Ack()
		},
			nats.Durable(durableName(subject)),
			nats.ManualAck(),
			nats.MaxAckPending(100),
			nats.AckWait(30*time.Second),
			nats.MaxDeliver(3),
			nats.DeliverNew(),
		)
		if err != nil {
			return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		return func() { _ = sub.Unsubscribe() }, nil
	})
}

func fromNATS(in *nats.Msg) Message {
	msg := Message{Data: in.Data}
	for name := range in.Header {
		value := in.Header.Get(name)
		if name == headerKey {
			msg.Key = value
			continue
		}
		if msg.Headers == nil {
			msg.Headers = make(map[string]string, len(in.Header))
		}
		msg.Headers[name] = value
	}
	return msg
}

func (q *NATSQueue) Unsubscribe(subject string) error {
	return q.subs.remove(subject)
}

// Close drops the subscriptions and closes the connection if the queue
// opened it.
func (q *NATSQueue) Close() error {
	if q.subs.shutdown() && q.ownsConn {
		q.conn.Close()
	}
	return nil
}
