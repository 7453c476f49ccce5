package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cuemby/maintwatch/pkg/log"
	"github.com/cuemby/maintwatch/pkg/metadata"
	"github.com/cuemby/maintwatch/pkg/orchestrator"
	"github.com/cuemby/maintwatch/pkg/storage"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStateFile = "/var/lib/maintwatch/last_event"
	DefaultStateDB   = "/var/lib/maintwatch/maintwatch.db"
	DefaultRetry     = time.Second
)

// Config is the agent configuration. It is built once at start-up and not
// modified afterwards.
type Config struct {
	MetadataURL string            `yaml:"metadata_url"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	TimeoutSec  int               `yaml:"timeout_sec"`
	RetryDelay  time.Duration     `yaml:"retry_delay"`

	Persist      bool   `yaml:"persist"`
	StateBackend string `yaml:"state_backend"`
	StatePath    string `yaml:"state_path"`

	AsinfoPath    string        `yaml:"asinfo"`
	Options       string        `yaml:"options"`
	ActionTimeout time.Duration `yaml:"action_timeout"`

	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		MetadataURL:   metadata.DefaultBaseURL,
		TimeoutSec:    metadata.MaxTimeoutSec,
		RetryDelay:    DefaultRetry,
		StateBackend:  storage.BackendFile,
		AsinfoPath:    orchestrator.DefaultAsinfoPath,
		ActionTimeout: 5 * time.Minute,
		LogLevel:      string(log.InfoLevel),
	}
}

// ResolveStatePath fills StatePath from the backend default when unset
func (c *Config) ResolveStatePath() {
	if c.StatePath != "" {
		return
	}
	if c.StateBackend == storage.BackendBolt {
		c.StatePath = DefaultStateDB
	} else {
		c.StatePath = DefaultStateFile
	}
}

// Validate checks the configuration and reports every problem found
func (c Config) Validate() error {
	var errs []error

	if c.TimeoutSec < 1 || c.TimeoutSec > metadata.MaxTimeoutSec {
		errs = append(errs, fmt.Errorf("timeout_sec must be between 1 and %d, got %d", metadata.MaxTimeoutSec, c.TimeoutSec))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry_delay must be positive, got %s", c.RetryDelay))
	}

	if u, err := url.Parse(c.MetadataURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid metadata_url %q", c.MetadataURL))
	}

	switch c.StateBackend {
	case storage.BackendFile, storage.BackendBolt:
	default:
		errs = append(errs, fmt.Errorf("state_backend must be %q or %q, got %q", storage.BackendFile, storage.BackendBolt, c.StateBackend))
	}
	if c.Persist && c.StatePath == "" {
		errs = append(errs, errors.New("state_path is required when persist is enabled"))
	}

	if c.AsinfoPath == "" {
		errs = append(errs, errors.New("asinfo path must not be empty"))
	}
	if c.ActionTimeout < 0 {
		errs = append(errs, fmt.Errorf("action_timeout must not be negative, got %s", c.ActionTimeout))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// YAML renders the configuration
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}
