// Package config loads healthform settings from defaults, an optional yaml
// file, an optional .env file, HEALTHFORM_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the full application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Form    FormConfig    `mapstructure:"form"`
}

// APIConfig points at the prediction service.
type APIConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig drives `healthform serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// FormConfig optionally replaces the embedded field schema.
type FormConfig struct {
	SchemaFile string `mapstructure:"schema_file"`
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	var errs []error

	endpoint := strings.TrimSpace(c.API.Endpoint)
	if endpoint == "" {
		errs = append(errs, errors.New("api.endpoint is required"))
	} else if u, err := url.Parse(endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.endpoint %q must be an absolute http(s) URL", endpoint))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	if c.Server.SessionTTL < 0 {
		errs = append(errs, errors.New("server.session_ttl must not be negative"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
