package queue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/utils"
)

type constructor func(cfg config.QueueConfig) (Queue, error)

var backends = map[utils.QueueType]constructor{
	utils.QueueTypeMemory: func(config.QueueConfig) (Queue, error) {
		return newMemoryQueue(), nil
	},
	utils.QueueTypeNATS: func(cfg config.QueueConfig) (Queue, error) {
		return newNATSQueue(cfg.URL, cfg.Username, cfg.Password)
	},
	utils.QueueTypeRedis: func(cfg config.QueueConfig) (Queue, error) {
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		})
	},
	utils.QueueTypeKafka: func(cfg config.QueueConfig) (Queue, error) {
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return newKafkaQueue(KafkaConfig{Brokers: brokers, GroupID: cfg.KafkaGroupID})
	},
}

// NewQueue opens the backend named by cfg.Type, the in-process queue when
// unset. Kafka brokers fall back to a comma separated URL.
func NewQueue(cfg config.QueueConfig) (Queue, error) {
	kind := utils.QueueType(strings.ToLower(strings.TrimSpace(cfg.Type)))
	if kind == "" {
		kind = utils.QueueTypeMemory
	}

	build, ok := backends[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported queue type %q (supported: %s)", cfg.Type, strings.Join(Backends(), ", "))
	}
	return build(cfg)
}

// Backends lists the supported queue types.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for kind := range backends {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}
