// Package config loads the process configuration from defaults, an optional
// YAML file and LEADCAPTURE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/exo-addons/leadcapture"
	"github.com/exo-addons/leadcapture/dispatch"
	"github.com/exo-addons/leadcapture/lead"
	"github.com/exo-addons/leadcapture/subscriber"
	"github.com/exo-addons/leadcapture/transport"
)

// EnvPrefix prefixes every environment override, e.g. LEADCAPTURE_SERVER_URL.
const EnvPrefix = "LEADCAPTURE"

// Queue backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	ServerURL string            `mapstructure:"server_url"`
	Token     string            `mapstructure:"token"`
	Capture   lead.Capture      `mapstructure:"capture"`
	Transport transport.Config  `mapstructure:"transport"`
	Dispatch  dispatch.Config   `mapstructure:"dispatch"`
	Queue     QueueConfig       `mapstructure:"queue"`
	Redis     RedisConfig       `mapstructure:"redis"`
	NATS      subscriber.Config `mapstructure:"nats"`
	HTTP      HTTPConfig        `mapstructure:"http"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

type QueueConfig struct {
	Backend string `mapstructure:"backend"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configPath, or config.yaml from . or /etc/leadcapture when
// configPath is empty. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/leadcapture")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	tc := transport.DefaultConfig()
	dc := dispatch.DefaultConfig()
	nc := subscriber.DefaultConfig()

	// Every key needs a default so AutomaticEnv can override it.
	v.SetDefault("server_url", "")
	v.SetDefault("token", "")
	v.SetDefault("capture.method", "")
	v.SetDefault("capture.type", "")
	v.SetDefault("capture.person_source", "")
	v.SetDefault("capture.source_info", "")

	v.SetDefault("transport.connect_timeout", tc.ConnectTimeout)
	v.SetDefault("transport.read_timeout", tc.ReadTimeout)
	v.SetDefault("transport.request_timeout", tc.RequestTimeout)
	v.SetDefault("transport.idle_conn_timeout", tc.IdleConnTimeout)
	v.SetDefault("transport.max_conns_per_route", tc.MaxConnsPerRoute)
	v.SetDefault("transport.rate_limit", tc.RateLimit)

	v.SetDefault("dispatch.workers", dc.Workers)
	v.SetDefault("dispatch.queue_size", dc.QueueSize)

	v.SetDefault("queue.backend", BackendMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", dispatch.DefaultRedisKey)

	v.SetDefault("nats.url", nc.URL)
	v.SetDefault("nats.subject", nc.Subject)
	v.SetDefault("nats.queue_group", nc.QueueGroup)
	v.SetDefault("nats.name", nc.Name)
	v.SetDefault("nats.max_reconnects", nc.MaxReconnects)
	v.SetDefault("nats.reconnect_wait", nc.ReconnectWait)
	v.SetDefault("nats.timeout", nc.Timeout)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects unknown enumerated values. Missing server URL or token is
// not an error here: the relay reports it on every send.
func (c *Config) Validate() error {
	switch c.Queue.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("config: unknown queue.backend %q (want %s or %s)", c.Queue.Backend, BackendMemory, BackendRedis)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown logging.format %q (want json or text)", c.Logging.Format)
	}
	if c.Dispatch.Workers <= 0 {
		return fmt.Errorf("config: dispatch.workers must be positive, got %d", c.Dispatch.Workers)
	}
	return nil
}

// Relay returns the lead relay configuration.
func (c *Config) Relay() leadcapture.Config {
	return leadcapture.Config{
		ServerURL: c.ServerURL,
		Token:     c.Token,
		Transport: c.Transport,
	}
}
