package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/intrigue/searchforms/internal/utils"
	"github.com/redis/go-redis/v9"
)

// Stream entry fields. Headers are stored as "h:<name>".
const (
	redisFieldData   = "data"
	redisFieldKey    = "key"
	redisHeaderField = "h:"
)

// RedisConfig configures the Redis Streams backend
type RedisConfig struct {
	URL      string // redis://host:port or a bare host:port
	Password string
	DB       int
	Stream   string // stream name prefix (default: searchforms)
	Group    string // consumer group (default: searchforms-group)
	Consumer string // consumer name (default: hostname)
	MaxLen   int64  // approximate stream cap (default: 10000)
}

func redisDefaults(cfg RedisConfig) RedisConfig {
	if cfg.Stream == "" {
		cfg.Stream = utils.StreamPrefix
	}
	if cfg.Group == "" {
		cfg.Group = utils.StreamPrefix + "-group"
	}
	if cfg.Consumer == "" {
		cfg.Consumer, _ = os.Hostname()
		if cfg.Consumer == "" {
			cfg.Consumer = utils.StreamPrefix + "-listener"
		}
	}
	if cfg.MaxLen == 0 {
		cfg.MaxLen = 10000
	}
	return cfg
}

// RedisQueue appends form events to one stream per subject and reads them
// back through a consumer group.
type RedisQueue struct {
	client *redis.Client
	config RedisConfig
	subs   *consumers
}

func newRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to Redis at %s: %w", opts.Addr, err)
	}

	return &RedisQueue{client: client, config: redisDefaults(cfg), subs: newConsumers()}, nil
}

func (q *RedisQueue) streamName(subject string) string {
	return q.config.Stream + ":" + subject
}

// Publish adds an entry, trimming the stream to roughly MaxLen.
func (q *RedisQueue) Publish(ctx context.Context, subject string, msg Message) error {
	values := map[string]interface{}{redisFieldData: msg.Data}
	if msg.Key != "" {
		values[redisFieldKey] = msg.Key
	}
	for name, value := range msg.Headers {
		values[redisHeaderField+name] = value
	}

	stream := q.streamName(subject)
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: q.config.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("append to stream %s: %w", stream, err)
	}
	return nil
}

// Subscribe creates the group at the stream tail when missing. Entries whose
// handler fails stay pending in the group.
func (q *RedisQueue) Subscribe(subject string, handler Handler) error {
	stream := q.streamName(subject)
	return q.subs.add(subject, func() (func(), error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "$").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil, fmt.Errorf("create group %s on %s: %w", q.config.Group, stream, err)
		}
		return goLoop(func(ctx context.Context) { q.read(ctx, stream, handler) }), nil
	})
}

func (q *RedisQueue) read(ctx context.Context, stream string, handler Handler) {
	for ctx.Err() == nil {
		res, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    100,
			Block:    5 * time.Second,
		}).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range res {
			for _, entry := range s.Messages {
				if handler(fromRedis(entry.Values)) == nil {
					q.client.XAck(ctx, stream, q.config.Group, entry.ID)
				}
			}
		}
	}
}

func fromRedis(values map[string]interface{}) Message {
	var msg Message
	for field, raw := range values {
		value, _ := raw.(string)
		switch {
		case field == redisFieldData:
			msg.Data = []byte(value)
		case field == redisFieldKey:
			msg.Key = value
		case strings.HasPrefix(field, redisHeaderField):
			if msg.Headers == nil {
				msg.Headers = make(map[string]string)
			}
			msg.Headers[strings.TrimPrefix(field, redisHeaderField)] = value
		}
	}
	return msg
}

func (q *RedisQueue) Unsubscribe(subject string) error {
	return q.subs.remove(subject)
}

func (q *RedisQueue) Close() error {
	if !q.subs.shutdown() {
		return nil
	}
	return q.client.Close()
}
