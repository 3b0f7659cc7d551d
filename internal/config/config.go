// Package config loads process configuration for the formguard binaries:
// struct defaults, then an optional YAML file, then FORMGUARD_* environment
// variables, validated with go-playground/validator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-formguard/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMGUARD_"

// PathEnvVar overrides the configuration file path.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched, in order, when no path is given.
var DefaultPaths = []string{
	"formguard.yaml",
	"formguard.yml",
	"/etc/formguard/config.yaml",
}

// Config is the complete process configuration.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Logging logging.Config `koanf:"logging"`
	Remote  RemoteConfig   `koanf:"remote"`
	Metrics MetricsConfig  `koanf:"metrics"`
	Schemas SchemasConfig  `koanf:"schemas"`
	Client  ClientConfig   `koanf:"client"`
}

// ServerConfig configures the sandbox HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RemoteConfig configures the remote check endpoints.
type RemoteConfig struct {
	RateLimit        int           `koanf:"rate_limit" validate:"min=0"`
	RateWindow       time.Duration `koanf:"rate_window" validate:"required_with=RateLimit"`
	LookupTimeout    time.Duration `koanf:"lookup_timeout" validate:"min=0"`
	TakenUsernames   []string      `koanf:"taken_usernames"`
	RegisteredEmails []string      `koanf:"registered_emails" validate:"dive,email"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"omitempty,startswith=/"`
}

// SchemasConfig points at extra schema sources.
type SchemasConfig struct {
	Dir     string `koanf:"dir"`
	OpenAPI string `koanf:"openapi"`
}

// ClientConfig configures the interactive client.
type ClientConfig struct {
	BaseURL          string        `koanf:"base_url" validate:"required,url"`
	Timeout          time.Duration `koanf:"timeout" validate:"min=0"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout" validate:"min=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	logCfg := logging.DefaultConfig()
	logCfg.Output = nil
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: logCfg,
		Remote: RemoteConfig{
			RateLimit:        30,
			RateWindow:       time.Minute,
			LookupTimeout:    2 * time.Second,
			TakenUsernames:   []string{"admin", "test", "user"},
			RegisteredEmails: []string{"test@example.com", "admin@example.com"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Client: ClientConfig{
			BaseURL:          "http://127.0.0.1:8080",
			Timeout:          5 * time.Second,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
	}
}

// Load layers defaults, the YAML file at path (or the first default path
// found when path is empty) and the environment, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps FORMGUARD_SERVER_READ_TIMEOUT to server.read_timeout: the
// first segment names the section, the rest is the key.
func envKey(raw string) string {
	key := strings.ToLower(strings.TrimPrefix(raw, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
