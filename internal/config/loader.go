package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "travelsync.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Remote.BaseURL, "TRAVELSYNC_BASE_URL")
	setString(&cfg.Remote.PushURL, "TRAVELSYNC_PUSH_URL")
	setString(&cfg.Remote.Transport, "TRAVELSYNC_TRANSPORT")
	setString(&cfg.Remote.NATSURL, "NATS_URL")
	setString(&cfg.Remote.Token, "TRAVELSYNC_TOKEN")
	setDuration(&cfg.Remote.Timeout, "TRAVELSYNC_TIMEOUT")
	setString(&cfg.Actor.ID, "TRAVELSYNC_ACTOR_ID")

	setDuration(&cfg.Connection.ReconnectDelay, "TRAVELSYNC_RECONNECT_DELAY")
	setDuration(&cfg.Connection.DialTimeout, "TRAVELSYNC_DIAL_TIMEOUT")

	// Poll
	setBool(&cfg.Poll.Enabled, "TRAVELSYNC_POLL_ENABLED")
	setDuration(&cfg.Poll.Interval, "TRAVELSYNC_POLL_INTERVAL")
	setDuration(&cfg.Poll.SlowInterval, "TRAVELSYNC_POLL_SLOW_INTERVAL")
	setDuration(&cfg.Poll.SlowAfter, "TRAVELSYNC_POLL_SLOW_AFTER")
	setDuration(&cfg.Poll.MaxBackoff, "TRAVELSYNC_POLL_MAX_BACKOFF")

	setString(&cfg.Logging.Level, "TRAVELSYNC_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TRAVELSYNC_LOG_SERVICE")
	setString(&cfg.Logging.Format, "TRAVELSYNC_LOG_FORMAT")
	setBool(&cfg.Logging.Async, "TRAVELSYNC_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "TRAVELSYNC_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TRAVELSYNC_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxItems, "TRAVELSYNC_CACHE_MAX_ITEMS")
	setDuration(&cfg.Cache.SessionTTL, "TRAVELSYNC_CACHE_SESSION_TTL")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")

	// Simulator
	setString(&cfg.Server.Port, "TRAVELSIM_PORT")
	setDuration(&cfg.Server.Tick, "TRAVELSIM_TICK")
	setFloat64(&cfg.Server.MilesPerTick, "TRAVELSIM_MILES_PER_TICK")
	setFloat64(&cfg.Server.EventChance, "TRAVELSIM_EVENT_CHANCE")
	setInt64(&cfg.Server.Seed, "TRAVELSIM_SEED")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	switch cfg.Remote.Transport {
	case TransportWebSocket:
		if cfg.Remote.PushURL == "" {
			return errors.New("remote.push_url is required for ws transport")
		}
	case TransportNATS:
		if cfg.Remote.NATSURL == "" {
			return errors.New("remote.nats_url is required for nats transport")
		}
	default:
		return fmt.Errorf("remote.transport must be %q or %q", TransportWebSocket, TransportNATS)
	}
	if cfg.Remote.BaseURL == "" {
		return errors.New("remote.base_url is required")
	}
	if cfg.Connection.ReconnectDelay <= 0 {
		return errors.New("connection.reconnect_delay must be > 0")
	}
	if cfg.Connection.DialTimeout <= 0 {
		return errors.New("connection.dial_timeout must be > 0")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Poll.Enabled && cfg.Poll.Interval <= 0 {
		return errors.New("poll.interval must be > 0 when polling is enabled")
	}
	switch cfg.Logging.Format {
	case "", "json", "text", "auto":
	default:
		return fmt.Errorf("logging.format %q is not one of json, text, auto", cfg.Logging.Format)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Overrides holds command-line values. Nil fields leave the config untouched.
type Overrides struct {
	ActorID   *string
	BaseURL   *string
	PushURL   *string
	Transport *string
	LogLevel  *string
	Port      *string
}

// LoadWithOverrides returns a Config using the hierarchy:
// defaults < YAML < ENV < command-line overrides.
func LoadWithOverrides(yamlPath string, o Overrides) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyOverrides(&cfg, o)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func applyOverrides(cfg *Config, o Overrides) {
	apply := func(dst, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&cfg.Actor.ID, o.ActorID)
	apply(&cfg.Remote.BaseURL, o.BaseURL)
	apply(&cfg.Remote.PushURL, o.PushURL)
	apply(&cfg.Remote.Transport, o.Transport)
	apply(&cfg.Logging.Level, o.LogLevel)
	apply(&cfg.Server.Port, o.Port)
}
