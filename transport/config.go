package transport

import "time"

// DefaultMaxConnsPerRoute caps open connections to a single destination.
const DefaultMaxConnsPerRoute = 10

// Config holds the connection pool and timeout settings of a Client.
type Config struct {
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration `json:"connect_timeout" mapstructure:"connect_timeout"`

	// ReadTimeout bounds the wait for response headers once the request is written.
	ReadTimeout time.Duration `json:"read_timeout" mapstructure:"read_timeout"`

	// RequestTimeout bounds the whole exchange, body read included.
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`

	// IdleConnTimeout is how long a pooled keep-alive connection may sit unused.
	IdleConnTimeout time.Duration `json:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`

	// MaxConnsPerRoute caps concurrent connections per destination. Requests
	// beyond the cap wait for a pooled connection.
	MaxConnsPerRoute int `json:"max_conns_per_route" mapstructure:"max_conns_per_route"`

	// RateLimit is the maximum number of requests per second per route.
	// 0 means unlimited.
	RateLimit int `json:"rate_limit" mapstructure:"rate_limit"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		ReadTimeout:      10 * time.Second,
		RequestTimeout:   30 * time.Second,
		IdleConnTimeout:  90 * time.Second,
		MaxConnsPerRoute: DefaultMaxConnsPerRoute,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = def.IdleConnTimeout
	}
	if c.MaxConnsPerRoute <= 0 {
		c.MaxConnsPerRoute = def.MaxConnsPerRoute
	}
	return c
}
