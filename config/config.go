// Package config loads the relay server configuration from an optional
// YAML file merged with RELAY_* environment overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the relay server configuration.
type Config struct {
	ListenAddr   string        `yaml:"listenAddr"`
	DBPath       string        `yaml:"dbPath"`
	LogLevel     string        `yaml:"logLevel"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	PingInterval time.Duration `yaml:"pingInterval"`
	SendBuffer   int           `yaml:"sendBuffer"`
	RateLimit    RateLimit     `yaml:"rateLimit"`
}

// RateLimit bounds inbound events per identity.
type RateLimit struct {
	EventsPerSecond float64       `yaml:"eventsPerSecond"`
	Burst           int           `yaml:"burst"`
	IdleTTL         time.Duration `yaml:"idleTTL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		DBPath:       "relay.db",
		LogLevel:     "info",
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		SendBuffer:   64,
		RateLimit: RateLimit{
			EventsPerSecond: 25,
			Burst:           50,
			IdleTTL:         10 * time.Minute,
		},
	}
}

// Load reads the YAML file at path (if it exists), applies it over the
// defaults and then applies environment overrides. An empty path skips
// the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RELAY_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("RELAY_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RELAY_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WriteTimeout = d
		}
	}
	if v := os.Getenv("RELAY_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PingInterval = d
		}
	}
	if v := os.Getenv("RELAY_SEND_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SendBuffer = n
		}
	}
	if v := os.Getenv("RELAY_RATE_LIMIT_EPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimit.EventsPerSecond = f
		}
	}
	if v := os.Getenv("RELAY_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Burst = n
		}
	}
}
