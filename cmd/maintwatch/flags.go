package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/maintwatch/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags registers every setting as a flag and binds it to v so it can
// also come from MAINTWATCH_* environment variables or --config. Request
// headers use the key "headers" (MAINTWATCH_HEADER or MAINTWATCH_HEADERS as
// key=value,key=value).
func bindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	def := config.Default()

	fs.String("config", "", "YAML config file")
	fs.StringP("options", "o", def.Options, `Extra options appended to every asinfo call, quoted as one string, e.g. -o "-U admin -P admin"`)
	fs.Bool("persist", def.Persist, "Persist the last seen event across restarts")
	fs.String("state-backend", def.StateBackend, "State backend: file or bolt")
	fs.String("state-path", "", "State file or database path (default depends on backend)")
	fs.Int("timeout-sec", def.TimeoutSec, "Server-side wait for each hanging GET, 1-3600 seconds")
	fs.Duration("retry-delay", def.RetryDelay, "Pause before retrying after a 503 or network error")
	fs.String("metadata-url", def.MetadataURL, "Metadata server base URL")
	fs.StringToString("header", nil, "Extra request header as key=value (repeatable)")
	fs.String("asinfo", def.AsinfoPath, "Path to the asinfo binary")
	fs.Duration("action-timeout", def.ActionTimeout, "Timeout for each asinfo call (0 disables)")
	fs.String("metrics-addr", "", "Serve /metrics and health endpoints on this address")
	fs.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("log-json", def.LogJSON, "Log as JSON instead of console text")

	for _, name := range []string{
		"config", "options", "persist", "state-backend", "state-path",
		"timeout-sec", "retry-delay", "metadata-url", "asinfo",
		"action-timeout", "metrics-addr", "log-level", "log-json",
	} {
		_ = v.BindPFlag(viperKey(name), fs.Lookup(name))
	}
	_ = v.BindPFlag("headers", fs.Lookup("header"))
	_ = v.BindEnv("headers", "MAINTWATCH_HEADER", "MAINTWATCH_HEADERS")

	v.SetEnvPrefix("MAINTWATCH")
	v.AutomaticEnv()
}

func viperKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// loadConfig builds the validated configuration from flags, environment
// and config file, in that order of precedence
func loadConfig(v *viper.Viper) (config.Config, error) {
	headers, err := headersValue(v)
	if err != nil {
		return config.Config{}, err
	}

	cfg := config.Config{
		MetadataURL:   v.GetString("metadata_url"),
		Headers:       headers,
		TimeoutSec:    v.GetInt("timeout_sec"),
		RetryDelay:    v.GetDuration("retry_delay"),
		Persist:       v.GetBool("persist"),
		StateBackend:  v.GetString("state_backend"),
		StatePath:     v.GetString("state_path"),
		AsinfoPath:    v.GetString("asinfo"),
		Options:       v.GetString("options"),
		ActionTimeout: v.GetDuration("action_timeout"),
		MetricsAddr:   v.GetString("metrics_addr"),
		LogLevel:      v.GetString("log_level"),
		LogJSON:       v.GetBool("log_json"),
	}

	cfg.ResolveStatePath()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// headersValue reads the headers setting. Flags and the config file yield a
// map; the environment yields the key=value,key=value form.
func headersValue(v *viper.Viper) (map[string]string, error) {
	raw, ok := v.Get("headers").(string)
	if !ok {
		return v.GetStringMapString("headers"), nil
	}

	headers := make(map[string]string)
	for _, pair := range strings.Split(strings.Trim(strings.TrimSpace(raw), "[]"), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}
