package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. HEALTHFORM_API_ENDPOINT.
const EnvPrefix = "HEALTHFORM"

// Defaults used when no other source sets a key.
var defaults = map[string]any{
	"api.endpoint":            "http://localhost:8000/predict",
	"api.timeout":             "30s",
	"server.addr":             ":8080",
	"server.session_ttl":      "30m",
	"server.shutdown_timeout": "10s",
	"logging.level":           "info",
	"logging.format":          "console",
	"metrics.enabled":         true,
	"form.schema_file":        "",
}

// Options select the sources Load reads besides defaults and environment.
type Options struct {
	// File is an optional yaml config file. Empty means look for
	// healthform.yaml in the working directory and ./configs.
	File string
	// EnvFile is an optional dotenv file. Empty means ".env" if present.
	EnvFile string
	// Flags are bound by key; only flags the user set override other sources.
	Flags map[string]*pflag.Flag
}

// Load resolves the configuration with precedence
// flags > environment > config file > defaults, then validates it.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("healthform")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("config: bind flag %s: %w", key, err)
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

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}
