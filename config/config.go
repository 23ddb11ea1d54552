// Package config loads piiguard's process configuration with the precedence
// defaults < config file < environment < flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the effective process configuration
type Config struct {
	PII     PIIConfig     `mapstructure:"pii"`
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Relay   RelayConfig   `mapstructure:"relay"`
}

// PIIConfig configures detection and the session store
type PIIConfig struct {
	// SessionTTLMillis is the session lifetime in milliseconds
	SessionTTLMillis int64 `mapstructure:"session_ttl"`
	// SweepIntervalMillis is the background sweep period in milliseconds
	SweepIntervalMillis int64 `mapstructure:"sweep_interval"`
	// CatalogPath optionally points at a YAML pattern catalog
	CatalogPath string `mapstructure:"catalog_path"`
	// OverlapPolicy is keep_all or longest_wins
	OverlapPolicy string `mapstructure:"overlap_policy"`
	// SealOriginals encrypts originals in memory while stored
	SealOriginals bool `mapstructure:"seal_originals"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig configures the optional HTTP transport
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RelayConfig points the relay at an external MCP tool
type RelayConfig struct {
	ServerPath string `mapstructure:"server_path"`
	ToolName   string `mapstructure:"tool_name"`
	TimeoutMs  int64  `mapstructure:"timeout"`
	RetryCount int    `mapstructure:"retry_count"`
	// RequestsPerMinute limits relay calls per session; 0 disables
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// SessionTTL returns the TTL as a duration
func (c PIIConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMillis) * time.Millisecond
}

// SweepInterval returns the sweep period as a duration
func (c PIIConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMillis) * time.Millisecond
}

// Timeout returns the relay call timeout as a duration
func (c RelayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// DefaultConfig returns built-in defaults
func DefaultConfig() Config {
	return Config{
		PII: PIIConfig{
			SessionTTLMillis:    3600000,
			SweepIntervalMillis: 300000,
			OverlapPolicy:       "keep_all",
			SealOriginals:       true,
		},
		Logging: LoggingConfig{Level: "info"},
		HTTP:    HTTPConfig{Addr: ":8088"},
		Relay: RelayConfig{
			ToolName:   "csp.llm.wrap",
			TimeoutMs:  30000,
			RetryCount: 2,
		},
	}
}

// envBinding maps an environment variable onto a config key
type envBinding struct {
	Env  string
	Key  string
	Kind string
}

var envBindings = []envBinding{
	{Env: "PII_SESSION_TTL", Key: "pii.session_ttl", Kind: "int"},
	{Env: "PII_SWEEP_INTERVAL", Key: "pii.sweep_interval", Kind: "int"},
	{Env: "PII_CATALOG_PATH", Key: "pii.catalog_path", Kind: "string"},
	{Env: "PII_OVERLAP_POLICY", Key: "pii.overlap_policy", Kind: "string"},
	{Env: "PII_SEAL_ORIGINALS", Key: "pii.seal_originals", Kind: "bool"},
	{Env: "PIIGUARD_LOG_LEVEL", Key: "logging.level", Kind: "string"},
	{Env: "PIIGUARD_LOG_JSON", Key: "logging.json", Kind: "bool"},
	{Env: "PIIGUARD_HTTP_ADDR", Key: "http.addr", Kind: "string"},
	{Env: "MCP_SERVER_PATH", Key: "relay.server_path", Kind: "string"},
	{Env: "MCP_TOOL_NAME", Key: "relay.tool_name", Kind: "string"},
	{Env: "MCP_TIMEOUT", Key: "relay.timeout", Kind: "int"},
	{Env: "MCP_RETRY_COUNT", Key: "relay.retry_count", Kind: "int"},
	{Env: "MCP_REQUESTS_PER_MINUTE", Key: "relay.requests_per_minute", Kind: "int"},
}

// LoadOptions controls configuration loading
type LoadOptions struct {
	// ConfigPath is an optional YAML config file
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys)
	FlagOverrides map[string]any
	// Getenv overrides os.Getenv, for tests
	Getenv func(string) string
}

// Load returns the effective configuration
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := mergeConfigFile(v, opts.ConfigPath); err != nil {
		return Config{}, err
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnvOverrides(v, getenv); err != nil {
		return Config{}, err
	}

	for k, val := range opts.FlagOverrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("pii.session_ttl", def.PII.SessionTTLMillis)
	v.SetDefault("pii.sweep_interval", def.PII.SweepIntervalMillis)
	v.SetDefault("pii.catalog_path", def.PII.CatalogPath)
	v.SetDefault("pii.overlap_policy", def.PII.OverlapPolicy)
	v.SetDefault("pii.seal_originals", def.PII.SealOriginals)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.json", def.Logging.JSON)

	v.SetDefault("http.addr", def.HTTP.Addr)

	v.SetDefault("relay.server_path", def.Relay.ServerPath)
	v.SetDefault("relay.tool_name", def.Relay.ToolName)
	v.SetDefault("relay.timeout", def.Relay.TimeoutMs)
	v.SetDefault("relay.retry_count", def.Relay.RetryCount)
	v.SetDefault("relay.requests_per_minute", def.Relay.RequestsPerMinute)
}

// mergeConfigFile merges the YAML config file if it exists
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(v *viper.Viper, getenv func(string) string) error {
	for _, binding := range envBindings {
		val := strings.TrimSpace(getenv(binding.Env))
		if val == "" {
			continue
		}
		parsed, err := parseValueByKind(val, binding.Kind)
		if err != nil {
			return fmt.Errorf("env %s: %w", binding.Env, err)
		}
		v.Set(binding.Key, parsed)
	}
	return nil
}

func parseValueByKind(raw, kind string) (any, error) {
	switch kind {
	case "int":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", raw)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %q", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// Validate rejects configurations the store cannot run with
func Validate(cfg Config) error {
	if cfg.PII.SessionTTLMillis <= 0 {
		return fmt.Errorf("pii.session_ttl must be positive, got %d", cfg.PII.SessionTTLMillis)
	}
	if cfg.PII.SweepIntervalMillis <= 0 {
		return fmt.Errorf("pii.sweep_interval must be positive, got %d", cfg.PII.SweepIntervalMillis)
	}
	switch cfg.PII.OverlapPolicy {
	case "", "keep_all", "longest_wins":
	default:
		return fmt.Errorf("pii.overlap_policy must be keep_all or longest_wins, got %q", cfg.PII.OverlapPolicy)
	}
	if cfg.Relay.RetryCount < 0 {
		return fmt.Errorf("relay.retry_count must not be negative")
	}
	return nil
}
