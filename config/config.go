package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig      `yaml:"server"`
	Platform     PlatformConfig    `yaml:"platform"`
	Monitor      MonitorConfig     `yaml:"monitor"`
	Influx       InfluxConfig      `yaml:"influx"`
	Database     DatabaseConfig    `yaml:"database"`
	Push         PushConfig        `yaml:"push"`
	WorkerPool   WorkerPoolConfig  `yaml:"worker_pool"`
	Translations map[string]string `yaml:"translations"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	Timezone        string  `yaml:"timezone"`
}

// PlatformConfig describes the resource-configuration API and the credentials
// sent with every request to it.
type PlatformConfig struct {
	BaseURL        string `yaml:"base_url"`
	LoggingDataURL string `yaml:"logging_data_url"`
	AppID          string `yaml:"api_application"`
	APIVersion     string `yaml:"api_version"`
	CompanyID      string `yaml:"api_company"`
	AccessToken    string `yaml:"access_token"`
	HTTPProxy      string `yaml:"http_proxy"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// MonitorConfig controls the periodic wear evaluation.
type MonitorConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	// Source selects where metric samples come from: "platform" or "influx".
	Source string `yaml:"source"`
}

// InfluxConfig holds the InfluxDB connection used when monitor.source is "influx".
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
	TimeoutMS   int    `yaml:"timeout_ms"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "UTC"
	}

	if cfg.Platform.TimeoutSeconds <= 0 {
		cfg.Platform.TimeoutSeconds = 30
	}

	if cfg.Monitor.IntervalSeconds <= 0 {
		cfg.Monitor.IntervalSeconds = 300
	}
	cfg.Monitor.Interval = time.Duration(cfg.Monitor.IntervalSeconds) * time.Second
	if cfg.Monitor.Source == "" {
		cfg.Monitor.Source = "platform"
	}

	if cfg.Influx.Measurement == "" {
		cfg.Influx.Measurement = "metrics"
	}
	if cfg.Influx.TimeoutMS <= 0 {
		cfg.Influx.TimeoutMS = 10000
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

// Location resolves the configured server timezone, falling back to UTC.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		log.Printf("Warning: invalid timezone %q: %v. Using UTC.", cfg.Server.Timezone, err)
		return time.UTC
	}
	return loc
}
