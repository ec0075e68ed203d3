// Package config provides hierarchical configuration loading for travelsync.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the sync client and the simulator.
type Config struct {
	Remote     Remote     `yaml:"remote"`
	Actor      Actor      `yaml:"actor"`
	Connection Connection `yaml:"connection"`
	Poll       Poll       `yaml:"poll"`
	Logging    Logging    `yaml:"logging"`
	Breaker    Breaker    `yaml:"breaker"`
	Cache      Cache      `yaml:"cache"`
	Telemetry  Telemetry  `yaml:"telemetry"`
	Server     Server     `yaml:"server"`
}

// Transport names for the push channel.
const (
	TransportWebSocket = "ws"
	TransportNATS      = "nats"
)

// Remote holds the addresses of the remote journey engine.
type Remote struct {
	BaseURL   string        `yaml:"base_url"`  // Command endpoints (http://host:port)
	PushURL   string        `yaml:"push_url"`  // WebSocket push channel (ws://host:port/ws)
	Transport string        `yaml:"transport"` // "ws" | "nats"
	NATSURL   string        `yaml:"nats_url"`
	Token     string        `yaml:"token"`   // Bearer token of the established session, if any
	Timeout   time.Duration `yaml:"timeout"` // 0 = no per-command timeout
}

// Actor identifies whose journey is tracked.
type Actor struct {
	ID string `yaml:"id"`
}

// Connection holds push channel lifecycle configuration.
type Connection struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
}

// Poll holds the fallback status poller configuration.
type Poll struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	SlowInterval time.Duration `yaml:"slow_interval"`
	SlowAfter    time.Duration `yaml:"slow_after"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Format  string `yaml:"format"` // "json" | "text" | "auto"
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for command endpoints.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the session lookup cache configuration.
type Cache struct {
	MaxItems   int64         `yaml:"max_items"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Telemetry holds OpenTelemetry export configuration. An empty endpoint
// disables export.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Server holds the journey simulator configuration.
type Server struct {
	Port         string        `yaml:"port"`
	Tick         time.Duration `yaml:"tick"`
	MilesPerTick float64       `yaml:"miles_per_tick"`
	EventChance  float64       `yaml:"event_chance"`
	Seed         int64         `yaml:"seed"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Remote: Remote{
			BaseURL:   "http://localhost:8080",
			PushURL:   "ws://localhost:8080/ws",
			Transport: TransportWebSocket,
			NATSURL:   "nats://localhost:4222",
		},
		Connection: Connection{
			ReconnectDelay: 5 * time.Second,
			DialTimeout:    10 * time.Second,
		},
		Poll: Poll{
			Enabled:      false,
			Interval:     2 * time.Second,
			SlowInterval: 5 * time.Second,
			SlowAfter:    30 * time.Second,
			MaxBackoff:   10 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "travelsync",
			Format:  "json",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			MaxItems:   1000,
			SessionTTL: 10 * time.Second,
		},
		Telemetry: Telemetry{
			ServiceName: "travelsync",
		},
		Server: Server{
			Port:         "8080",
			Tick:         time.Second,
			MilesPerTick: 0.5,
			EventChance:  0.2,
		},
	}
}
