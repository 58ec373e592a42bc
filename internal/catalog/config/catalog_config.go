package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v6"
)

// Supported document store backends.
const (
	BackendMongoDB = "mongodb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

// RealtimeConfig holds the change feed settings.
type RealtimeConfig struct {
	// WebSocketPrefix is mounted in front of /collections/:collection.
	WebSocketPrefix string `env:"WEBSOCKET_PREFIX" envDefault:"/ws" mapstructure:"websocket_prefix" json:"websocket_prefix"`

	// ClientSendChannelBuffer bounds the events queued for a slow websocket client.
	ClientSendChannelBuffer int `env:"CLIENT_SEND_CHANNEL_BUFFER" envDefault:"32" mapstructure:"client_send_channel_buffer" json:"client_send_channel_buffer"`

	// ChangeLogMaxLen is the per-collection Redis stream length kept after trimming.
	ChangeLogMaxLen int64 `env:"CHANGE_LOG_MAX_LEN" envDefault:"10000" mapstructure:"change_log_max_len" json:"change_log_max_len"`

	// ChangeLogTrimSchedule is a cron spec for the trim job.
	ChangeLogTrimSchedule string `env:"CHANGE_LOG_TRIM_SCHEDULE" envDefault:"@every 10m" mapstructure:"change_log_trim_schedule" json:"change_log_trim_schedule"`
}

// RedisConfig holds Redis connection settings for the change log.
type RedisConfig struct {
	Enabled         bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host            string `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string `env:"REDIS_PORT" envDefault:"6379"`
	Password        string `env:"REDIS_PASSWORD"`
	Database        int    `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool   `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime string `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime string `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// GetAddr returns host:port.
func (c *RedisConfig) GetAddr() string {
	return c.Host + ":" + c.Port
}

// CatalogConfig holds all configuration for the catalog module.
type CatalogConfig struct {
	Backend      string         `env:"STORE_BACKEND" envDefault:"mongodb"`
	MongoDBURI   string         `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName string         `env:"MONGODB_DATABASE" envDefault:"plant_shop"`
	BoltPath     string         `env:"BOLT_PATH" envDefault:"plant-shop.db"`
	Realtime     RealtimeConfig `mapstructure:"realtime" json:"realtime"`
	Redis        RedisConfig    `mapstructure:"redis" json:"redis"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*CatalogConfig, error) {
	cfg := &CatalogConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load catalog configuration from environment: %w", err)
	}
	if err := env.Parse(&cfg.Realtime); err != nil {
		return nil, fmt.Errorf("failed to load catalog realtime configuration from environment: %w", err)
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to load catalog redis configuration from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend choice and fills zero values.
func (c *CatalogConfig) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendMongoDB:
		if c.MongoDBURI == "" {
			return errors.New("MONGODB_URI environment variable is not set")
		}
	case BackendBolt:
		if c.BoltPath == "" {
			return errors.New("BOLT_PATH environment variable is not set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Backend)
	}

	if c.Realtime.WebSocketPrefix == "" {
		c.Realtime.WebSocketPrefix = "/ws"
	}
	if c.Realtime.ClientSendChannelBuffer <= 0 {
		c.Realtime.ClientSendChannelBuffer = 32
	}
	if c.Realtime.ChangeLogMaxLen <= 0 {
		c.Realtime.ChangeLogMaxLen = 10000
	}
	if c.Realtime.ChangeLogTrimSchedule == "" {
		c.Realtime.ChangeLogTrimSchedule = "@every 10m"
	}
	return nil
}

// DefaultCatalogConfig returns a CatalogConfig with default values.
func DefaultCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		Backend:      BackendMongoDB,
		MongoDBURI:   "mongodb://localhost:27017",
		DatabaseName: "plant_shop",
		BoltPath:     "plant-shop.db",
		Realtime: RealtimeConfig{
			WebSocketPrefix:         "/ws",
			ClientSendChannelBuffer: 32,
			ChangeLogMaxLen:         10000,
			ChangeLogTrimSchedule:   "@every 10m",
		},
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            "6379",
			MaxRetries:      3,
			PoolSize:        10,
			MinIdleConns:    2,
			ConnMaxIdleTime: "30m",
			ConnMaxLifetime: "1h",
		},
	}
}
