package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intrigue/searchforms/internal/utils"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka backend
type KafkaConfig struct {
	Brokers       []string
	GroupID       string        // default: searchforms-group
	BatchTimeout  time.Duration // producer flush interval (default: 10ms)
	MaxAttempts   int           // producer attempts per message (default: 3)
	CommitRetries int           // consumer commit attempts (default: 3)
	RetryBackoff  time.Duration // pause between commit attempts (default: 100ms)
}

func kafkaDefaults(cfg KafkaConfig) KafkaConfig {
	if cfg.GroupID == "" {
		cfg.GroupID = utils.StreamPrefix + "-group"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return cfg
}

// KafkaQueue maps each subject to a topic. Messages are hashed on their key,
// so every event for one form lands on the same partition in order.
type KafkaQueue struct {
	config KafkaConfig
	writer *kafka.Writer
	subs   *consumers
}

// newKafkaQueue does not dial; the brokers are contacted on first use.
func newKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	cfg = kafkaDefaults(cfg)

	return &KafkaQueue{
		config: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           cfg.BatchTimeout,
			RequiredAcks:           kafka.RequireOne,
			MaxAttempts:            cfg.MaxAttempts,
			AllowAutoTopicCreation: true,
		},
		subs: newConsumers(),
	}, nil
}

func toKafka(topic string, msg Message) kafka.Message {
	out := kafka.Message{Topic: topic, Value: msg.Data, Time: time.Now()}
	if msg.Key != "" {
		out.Key = []byte(msg.Key)
	}
	for name, value := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: name, Value: []byte(value)})
	}
	return out
}

func fromKafka(in kafka.Message) Message {
	msg := Message{Key: string(in.Key), Data: in.Value}
	if len(in.Headers) > 0 {
		msg.Headers = make(map[string]string, len(in.Headers))
		for _, h := range in.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}

func (q *KafkaQueue) Publish(ctx context.Context, subject string, msg Message) error {
	if err := q.writer.WriteMessages(ctx, toKafka(subject, msg)); err != nil {
		return fmt.Errorf("write to topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe joins the consumer group at the newest offset. A message is
// committed only after its handler succeeds.
func (q *KafkaQueue) Subscribe(subject string, handler Handler) error {
	return q.subs.add(subject, func() (func(), error) {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:        q.config.Brokers,
			GroupID:        q.config.GroupID,
			Topic:          subject,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        time.Second,
			StartOffset:    kafka.LastOffset,
			CommitInterval: time.Second,
		})
		stop := goLoop(func(ctx context.Context) { q.consume(ctx, reader, handler) })
		return func() {
			stop()
			_ = reader.Close()
		}, nil
	})
}

func (q *KafkaQueue) consume(ctx context.Context, reader *kafka.Reader, handler Handler) {
	for {
		in, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if handler(fromKafka(in)) != nil {
			continue
		}
		q.commit(ctx, reader, in)
	}
}

func (q *KafkaQueue) commit(ctx context.Context, reader *kafka.Reader, in kafka.Message) {
	for attempt := 0; attempt < q.config.CommitRetries; attempt++ {
		if reader.CommitMessages(ctx, in) == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.config.RetryBackoff):
		}
	}
}

func (q *KafkaQueue) Unsubscribe(subject string) error {
	return q.subs.remove(subject)
}

func (q *KafkaQueue) Close() error {
	if !q.subs.shutdown() {
		return nil
	}
	return q.writer.Close()
}
