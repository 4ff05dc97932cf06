package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Store         StoreConfig         `mapstructure:"store"`
	Etcd          EtcdConfig          `mapstructure:"etcd"`
	Queue         QueueConfig         `mapstructure:"queue"`
	Executor      ExecutorConfig      `mapstructure:"executor"`
	Visualization VisualizationConfig `mapstructure:"visualization"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP API port
	GRPCPort int    `mapstructure:"grpc_port"` // gRPC health port, 0 disables it
}

// StoreConfig selects where saved search forms live
type StoreConfig struct {
	Type      string        `mapstructure:"type"`       // memory (default) or etcd
	KeyPrefix string        `mapstructure:"key_prefix"` // etcd key prefix for forms
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`  // read cache TTL for the etcd store
	Compress  bool          `mapstructure:"compress"`   // snappy-compress stored documents
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// QueueConfig represents message queue configuration for form notifications
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication
	Subject  string `mapstructure:"subject"`  // Subject form events are published on

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "searchforms")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "searchforms-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// ExecutorConfig selects and tunes the search execution strategy
type ExecutorConfig struct {
	Mode               string        `mapstructure:"mode"`                 // catalog, offline or auto
	Endpoint           string        `mapstructure:"endpoint"`             // catalog GraphQL URL
	Timeout            time.Duration `mapstructure:"timeout"`              // per-request timeout
	ProbeTimeout       time.Duration `mapstructure:"probe_timeout"`        // startup probe timeout in auto mode
	AuthHeader         string        `mapstructure:"auth_header"`          // sent as Authorization when set
	PageSize           int           `mapstructure:"page_size"`            // settings.count, 0 lets the catalog decide
	AttributeCacheTTL  time.Duration `mapstructure:"attribute_cache_ttl"`  // attribute definition cache TTL
	AttributeCacheSize int           `mapstructure:"attribute_cache_size"` // attribute definition cache entries
	OfflineResultCount int           `mapstructure:"offline_result_count"` // placeholder results per offline search
}

// VisualizationConfig controls the lazily loaded renderers
type VisualizationConfig struct {
	LoadTimeout time.Duration `mapstructure:"load_timeout"` // bound for a single renderer load
	Preload     bool          `mapstructure:"preload"`      // start every load at boot instead of on first use
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc

	// Rotation for file output
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if c.Store.Type == "etcd" {
		if err := c.Etcd.Validate(); err != nil {
			return fmt.Errorf("etcd config: %w", err)
		}
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Executor.Validate(); err != nil {
		return fmt.Errorf("executor config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port: %d", c.GRPCPort)
	}

	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("http_port and grpc_port cannot be the same")
	}

	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "", "memory":
	case "etcd":
		if c.KeyPrefix == "" {
			return fmt.Errorf("store.key_prefix is required for etcd")
		}
	default:
		return fmt.Errorf("store.type must be 'memory' or 'etcd'")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("store.cache_ttl cannot be negative")
	}

	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: memory, nats, redis, kafka")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	return nil
}

// Validate validates executor configuration
func (c *ExecutorConfig) Validate() error {
	switch c.Mode {
	case "catalog":
		if c.Endpoint == "" {
			return fmt.Errorf("executor.endpoint is required in catalog mode")
		}
	case "", "auto", "offline":
	default:
		return fmt.Errorf("executor.mode must be one of: catalog, offline, auto")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("executor.timeout must be positive")
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("executor.probe_timeout must be positive")
	}

	if c.PageSize < 0 {
		return fmt.Errorf("executor.page_size cannot be negative")
	}

	if c.OfflineResultCount < 0 {
		return fmt.Errorf("executor.offline_result_count cannot be negative")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation limits cannot be negative")
	}

	return nil
}
