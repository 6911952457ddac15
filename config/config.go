// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogama/httptask/request"
	"github.com/gogama/httptask/timeout"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings a Client and its composition root need.
type Config struct {
	// BaseURL is the URL that relative request paths are resolved
	// against. It may be empty, in which case every path must be
	// absolute.
	BaseURL string
	// StartTasksImmediately makes the client resume each task as soon
	// as it is created. When false, the caller must call Resume.
	StartTasksImmediately bool
	// Timeout is the per-request timeout. Zero means no timeout.
	Timeout time.Duration
	// MethodTimeouts overrides Timeout for particular HTTP methods.
	// Keys are upper-case method names.
	MethodTimeouts map[string]time.Duration
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration
	// ParameterEncoding is the default encoding for body parameters.
	ParameterEncoding request.ParameterEncoding
	// Headers are added to every request unless the request sets them.
	Headers map[string]string
	// Log configures the command-line logger.
	Log LogConfig
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string
	// Format: console or json
	Format string
	// Outputs: stdout, stderr, or file paths
	Outputs []string
	// Rotation controls file rotation when writing to files
	Rotation RotationConfig
	// Development toggles development-friendly logging options
	Development bool
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

const (
	defaultConfigPath     = "~/.config/httptask/config.toml"
	defaultTimeout        = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		StartTasksImmediately: true,
		Timeout:               defaultTimeout,
		ConnectTimeout:        defaultConnectTimeout,
		ParameterEncoding:     request.Percent,
		Headers:               map[string]string{},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/httptask.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

type file struct {
	BaseURL               string            `toml:"base_url"`
	StartTasksImmediately *bool             `toml:"start_tasks_immediately"`
	Timeout               string            `toml:"timeout"`
	MethodTimeouts        map[string]string `toml:"method_timeouts"`
	ConnectTimeout        string            `toml:"connect_timeout"`
	ParameterEncoding     string            `toml:"parameter_encoding"`
	Headers               map[string]string `toml:"headers"`
	Log                   struct {
		Level       string   `toml:"level"`
		Format      string   `toml:"format"`
		Outputs     []string `toml:"outputs"`
		Development bool     `toml:"development"`
		Rotation    struct {
			Enable     bool   `toml:"enable"`
			Filename   string `toml:"filename"`
			MaxSizeMB  int    `toml:"max_size_mb"`
			MaxBackups int    `toml:"max_backups"`
			MaxAgeDays int    `toml:"max_age_days"`
			Compress   *bool  `toml:"compress"`
		} `toml:"rotation"`
	} `toml:"log"`
}

// Load locates and parses a TOML config file, falling back to defaults
// when it is missing. An empty path means the default location.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML config data. Absent or blank settings keep their
// defaults.
func Parse(data []byte) (Config, error) {
	var raw file
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	cfg.BaseURL = strings.TrimSpace(raw.BaseURL)
	if raw.StartTasksImmediately != nil {
		cfg.StartTasksImmediately = *raw.StartTasksImmediately
	}
	var err error
	if cfg.Timeout, err = parseDuration("timeout", raw.Timeout, cfg.Timeout); err != nil {
		return Config{}, err
	}
	for m, v := range raw.MethodTimeouts {
		method := request.Method(strings.ToUpper(strings.TrimSpace(m)))
		if !method.Valid() {
			return Config{}, fmt.Errorf("parse config: method_timeouts: unknown method %q", m)
		}
		d, err := parseDuration("method_timeouts."+m, v, cfg.Timeout)
		if err != nil {
			return Config{}, err
		}
		if cfg.MethodTimeouts == nil {
			cfg.MethodTimeouts = make(map[string]time.Duration, len(raw.MethodTimeouts))
		}
		cfg.MethodTimeouts[string(method)] = d
	}
	if cfg.ConnectTimeout, err = parseDuration("connect_timeout", raw.ConnectTimeout, cfg.ConnectTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ParameterEncoding, err = request.ParseParameterEncoding(raw.ParameterEncoding); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	for k, v := range raw.Headers {
		cfg.Headers[k] = v
	}

	if s := strings.TrimSpace(raw.Log.Level); s != "" {
		cfg.Log.Level = s
	}
	if s := strings.TrimSpace(raw.Log.Format); s != "" {
		cfg.Log.Format = s
	}
	if len(raw.Log.Outputs) > 0 {
		cfg.Log.Outputs = raw.Log.Outputs
	}
	cfg.Log.Development = raw.Log.Development
	rot := raw.Log.Rotation
	cfg.Log.Rotation.Enable = rot.Enable
	if s := strings.TrimSpace(rot.Filename); s != "" {
		cfg.Log.Rotation.Filename = mustExpand(s)
	}
	if rot.MaxSizeMB > 0 {
		cfg.Log.Rotation.MaxSizeMB = rot.MaxSizeMB
	}
	if rot.MaxBackups > 0 {
		cfg.Log.Rotation.MaxBackups = rot.MaxBackups
	}
	if rot.MaxAgeDays > 0 {
		cfg.Log.Rotation.MaxAgeDays = rot.MaxAgeDays
	}
	if rot.Compress != nil {
		cfg.Log.Rotation.Compress = *rot.Compress
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TimeoutPolicy returns the transport timeout policy for c. With
// method overrides it is a timeout.ByMethod policy; otherwise it is a
// fixed policy for c.Timeout, or timeout.Infinite if that is zero.
func (c Config) TimeoutPolicy() timeout.Policy {
	if len(c.MethodTimeouts) > 0 {
		return timeout.ByMethod(c.Timeout, c.MethodTimeouts)
	}
	if c.Timeout <= 0 {
		return timeout.Infinite
	}
	return timeout.Fixed(c.Timeout)
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	for m, d := range c.MethodTimeouts {
		if d < 0 {
			return fmt.Errorf("invalid method_timeouts.%s: %s", m, d)
		}
	}
	return nil
}

func parseDuration(name, s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", name, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
