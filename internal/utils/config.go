package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplicationConfig holds the host listen addresses.
type ApplicationConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsPort string `yaml:"metrics_port"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend string      `yaml:"backend"` // "redis" or "memory"
	Redis   RedisConfig `yaml:"redis"`
}

// PortScanConfig tunes the rule-independent port-scan aggregator.
type PortScanConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	PortThreshold int `yaml:"port_threshold"`
}

// EngineConfig tunes the correlation engine.
type EngineConfig struct {
	RecentBufferSize    int            `yaml:"recent_buffer_size"`
	DedupWindowSeconds  int            `yaml:"dedup_window_seconds"`
	DedupScanDepth      int            `yaml:"dedup_scan_depth"`
	QueueSize           int            `yaml:"queue_size"`
	ResetIntervalMins   int            `yaml:"reset_interval_minutes"`
	PortHistoryCapacity int            `yaml:"port_history_capacity"`
	PortScan            PortScanConfig `yaml:"port_scan"`
}

// AlertingConfig toggles the notification channels the host registers.
type AlertingConfig struct {
	Channels struct {
		Log       bool `yaml:"log"`
		Websocket bool `yaml:"websocket"`
		Email     bool `yaml:"email"`
	} `yaml:"channels"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full alertd configuration. ModelThresholds maps a model name
// to its decision threshold; models without an entry fall back to absolute
// confidence bands.
type Config struct {
	Application     ApplicationConfig  `yaml:"application"`
	Storage         StorageConfig      `yaml:"storage"`
	Engine          EngineConfig       `yaml:"engine"`
	Alerting        AlertingConfig     `yaml:"alerting"`
	Logging         LoggingConfig      `yaml:"logging"`
	ModelThresholds map[string]float64 `yaml:"model_thresholds"`
}

// DefaultConfig returns the built-in configuration used when no config file
// is available.
func DefaultConfig() *Config {
	cfg := &Config{
		Application: ApplicationConfig{
			ListenAddr:  ":5001",
			MetricsPort: "9105",
		},
		Storage: StorageConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Engine: EngineConfig{
			RecentBufferSize:    1000,
			DedupWindowSeconds:  5,
			DedupScanDepth:      50,
			QueueSize:           256,
			ResetIntervalMins:   5,
			PortHistoryCapacity: 20,
			PortScan: PortScanConfig{
				WindowSeconds: 10,
				PortThreshold: 10,
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		ModelThresholds: map[string]float64{},
	}
	cfg.Alerting.Channels.Log = true
	cfg.Alerting.Channels.Websocket = true
	return cfg
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their default values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate checks the settings that have no sane fallback.
func (c *Config) Validate() error {
	if c.Storage.Backend != "memory" && c.Storage.Backend != "redis" {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "redis" && c.Storage.Redis.Addr == "" {
		return fmt.Errorf("storage.redis.addr is required for the redis backend")
	}
	if c.Engine.RecentBufferSize <= 0 {
		return fmt.Errorf("engine.recent_buffer_size must be positive")
	}
	if c.Engine.QueueSize <= 0 {
		return fmt.Errorf("engine.queue_size must be positive")
	}
	return nil
}
