// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the run configuration shared by every mripipes
// subcommand: default block size, logging, metrics, and which dataset
// store backend a run uses unless a graph overrides it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	mripipeserrors "github.com/jwelling/mripipes/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level"`

	// Format is json or text. Default: text.
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus metrics server.
type MetricsConfig struct {
	// Enabled activates the metrics listener.
	Enabled bool `yaml:"enabled"`

	// ListenAddr is the TCP address to serve /metrics on, e.g. ":9090".
	ListenAddr string `yaml:"listen_addr"`
}

// StoreConfig selects and configures the default dataset-store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "s3". Default: sqlite.
	Backend string `yaml:"backend"`

	// Path is the SQLite file path, used when Backend is "sqlite".
	Path string `yaml:"path"`

	// Bucket and Prefix address an S3 object tree, used when Backend is "s3".
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Config is the complete mripipes run configuration.
type Config struct {
	// BlockSize is the default pull granularity in elements for tools
	// that round-robin across sinks (file output) or have no stronger
	// constraint of their own.
	BlockSize int64 `yaml:"block_size"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Store   StoreConfig   `yaml:"store"`
}

// Default returns a Config with sensible defaults for interactive use.
func Default() *Config {
	return &Config{
		BlockSize: 1024 * 1024,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9090",
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "mripipes.db",
		},
	}
}

// Load builds a Config by layering a YAML file (if path is non-empty)
// over Default, then MRIPIPES_* environment variables over that result.
// File and environment overrides are optional; an empty path and empty
// environment yield Default unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, mripipeserrors.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, mripipeserrors.Wrapf(err, "config: parse %s", path)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv overlays MRIPIPES_* environment variables onto cfg.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("MRIPIPES_BLOCK_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.BlockSize = n
		}
	}
	if v := os.Getenv("MRIPIPES_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MRIPIPES_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("MRIPIPES_LOG_SOURCE"); v != "" {
		c.Log.AddSource = v == "1" || strings.ToLower(v) == "true"
	}
	if v := os.Getenv("MRIPIPES_METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = v == "1" || strings.ToLower(v) == "true"
	}
	if v := os.Getenv("MRIPIPES_METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
	if v := os.Getenv("MRIPIPES_STORE"); v != "" {
		applyStoreURI(&c.Store, v)
	}
}

// applyStoreURI parses "sqlite:<path>" or "s3://bucket/prefix" into dst.
func applyStoreURI(dst *StoreConfig, uri string) {
	if strings.HasPrefix(uri, "s3://") {
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		dst.Backend = "s3"
		dst.Bucket = bucket
		dst.Prefix = prefix
		return
	}
	if strings.HasPrefix(uri, "sqlite:") {
		dst.Backend = "sqlite"
		dst.Path = strings.TrimPrefix(uri, "sqlite:")
		return
	}
	dst.Backend = "sqlite"
	dst.Path = uri
}

// Validate checks that cfg describes a runnable configuration.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}
	if c.BlockSize <= 0 {
		errs = append(errs, fmt.Sprintf("block_size must be positive, got %d", c.BlockSize))
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required when store.backend is sqlite")
		}
	case "s3":
		if c.Store.Bucket == "" {
			errs = append(errs, "store.bucket is required when store.backend is s3")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be one of [sqlite, s3], got %q", c.Store.Backend))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errs = append(errs, "metrics.listen_addr is required when metrics.enabled is true")
	}

	if len(errs) > 0 {
		return &mripipeserrors.ValidationError{
			Field:   "config",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}
