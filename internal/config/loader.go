package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configPath, or config.yaml from the usual locations when empty.
// A missing file leaves the defaults; SEARCHFORMS_<SECTION>_<KEY>
// environment variables override both.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	registerDefaults(v, "", reflect.ValueOf(*DefaultConfig()))

	v.SetEnvPrefix("SEARCHFORMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range []string{".", "./configs", "/etc/searchforms"} {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// registerDefaults sets a default for every mapstructure key under val.
// AutomaticEnv only resolves keys viper already knows, so this is also what
// makes each field overridable from the environment.
func registerDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		key := typ.Field(i).Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		field := val.Field(i)
		if field.Kind() == reflect.Struct {
			registerDefaults(v, key, field)
			continue
		}
		v.SetDefault(key, field.Interface())
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 5580,
			GRPCPort: 5581,
		},
		Store: StoreConfig{
			Type:      "memory",
			KeyPrefix: "/searchforms/forms/",
			CacheTTL:  30 * time.Second,
			Compress:  true,
		},
		Etcd: EtcdConfig{
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
		},
		Queue: QueueConfig{
			Type:         "memory",
			URL:          "nats://localhost:4222",
			Subject:      "forms.events",
			RedisStream:  "searchforms",
			RedisGroup:   "searchforms-group",
			KafkaGroupID: "searchforms-group",
		},
		Executor: ExecutorConfig{
			Mode:               "auto",
			Timeout:            10 * time.Second,
			ProbeTimeout:       2 * time.Second,
			AttributeCacheTTL:  5 * time.Minute,
			AttributeCacheSize: 16,
			OfflineResultCount: 25,
		},
		Visualization: VisualizationConfig{
			LoadTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
