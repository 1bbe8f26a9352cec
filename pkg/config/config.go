/*
Package config handles YAML client configuration and logger construction.
*/
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	// RPCEndpoint is the HTTP(S) JSON-RPC endpoint of the node.
	RPCEndpoint string `yaml:"rpc_endpoint"`
	// WSEndpoint is the optional websocket endpoint used for push
	// subscriptions.
	WSEndpoint string `yaml:"ws_endpoint"`
	// Network is the optional well-known network name the endpoint is
	// expected to serve.
	Network string `yaml:"network"`
	// RequestTimeout bounds a single RPC request.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// PollInterval is the receipt polling period.
	PollInterval time.Duration `yaml:"poll_interval"`
	// LogLevel is a zap level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates configuration from YAML data.
func LoadFromBytes(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for shape errors: a missing or
// non-HTTP RPC endpoint, a non-websocket WS endpoint, negative durations.
func (c Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if err := checkScheme(c.RPCEndpoint, "http", "https"); err != nil {
		return fmt.Errorf("rpc_endpoint: %w", err)
	}
	if c.WSEndpoint != "" {
		if err := checkScheme(c.WSEndpoint, "ws", "wss"); err != nil {
			return fmt.Errorf("ws_endpoint: %w", err)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout can't be negative")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval can't be negative")
	}
	return nil
}

func checkScheme(endpoint string, schemes ...string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("unexpected scheme %q", u.Scheme)
}

// NewLogger creates a production zap logger at the level named in the
// configuration, "info" when unset.
func (c Config) NewLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.LogLevel != "" {
		var err error
		level, err = zapcore.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
	}
	cc := zap.NewProductionConfig()
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Encoding = "console"
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cc.Build()
}
