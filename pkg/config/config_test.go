package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	cfg.ResolveStatePath()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3600, cfg.TimeoutSec)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.False(t, cfg.Persist)
}

func TestResolveStatePath(t *testing.T) {
	cfg := Default()
	cfg.StateBackend = "bolt"
	cfg.ResolveStatePath()
	assert.Equal(t, DefaultStateDB, cfg.StatePath)

	cfg.StatePath = "/tmp/custom"
	cfg.ResolveStatePath()
	assert.Equal(t, "/tmp/custom", cfg.StatePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "timeout zero", mutate: func(c *Config) { c.TimeoutSec = 0 }, wantErr: "timeout_sec"},
		{name: "timeout too large", mutate: func(c *Config) { c.TimeoutSec = 3601 }, wantErr: "timeout_sec"},
		{name: "timeout max ok", mutate: func(c *Config) { c.TimeoutSec = 3600 }},
		{name: "retry delay zero", mutate: func(c *Config) { c.RetryDelay = 0 }, wantErr: "retry_delay"},
		{name: "bad url", mutate: func(c *Config) { c.MetadataURL = "metadata" }, wantErr: "metadata_url"},
		{name: "bad backend", mutate: func(c *Config) { c.StateBackend = "etcd" }, wantErr: "state_backend"},
		{name: "persist without path", mutate: func(c *Config) { c.Persist = true; c.StatePath = "" }, wantErr: "state_path"},
		{name: "empty asinfo", mutate: func(c *Config) { c.AsinfoPath = "" }, wantErr: "asinfo"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ResolveStatePath()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.TimeoutSec = -1
	cfg.AsinfoPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout_sec") && strings.Contains(err.Error(), "asinfo"))
}

func TestYAML(t *testing.T) {
	cfg := Default()
	cfg.Persist = true
	cfg.Options = "-U admin"
	cfg.ResolveStatePath()

	out, err := cfg.YAML()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, true, decoded["persist"])
	assert.Equal(t, "-U admin", decoded["options"])
	assert.Equal(t, 3600, decoded["timeout_sec"])
	assert.NotContains(t, decoded, "metrics_addr")
}
