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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, int64(1024*1024), cfg.BlockSize)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, "sqlite", cfg.Store.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mripipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
block_size: 2048
log:
  level: debug
  format: json
store:
  backend: s3
  bucket: scans
  prefix: study-1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(2048), cfg.BlockSize)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "s3", cfg.Store.Backend)
	require.Equal(t, "scans", cfg.Store.Bucket)
	require.Equal(t, "study-1", cfg.Store.Prefix)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mripipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))

	t.Setenv("MRIPIPES_LOG_LEVEL", "warn")
	t.Setenv("MRIPIPES_BLOCK_SIZE", "512")
	t.Setenv("MRIPIPES_STORE", "s3://bucket/prefix")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, int64(512), cfg.BlockSize)
	require.Equal(t, "s3", cfg.Store.Backend)
	require.Equal(t, "bucket", cfg.Store.Bucket)
	require.Equal(t, "prefix", cfg.Store.Prefix)
}

func TestLoadNoPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero block size", func(c *Config) { c.BlockSize = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"sqlite missing path", func(c *Config) { c.Store.Backend = "sqlite"; c.Store.Path = "" }},
		{"s3 missing bucket", func(c *Config) { c.Store.Backend = "s3"; c.Store.Bucket = "" }},
		{"metrics missing addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.ListenAddr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestApplyStoreURI(t *testing.T) {
	var s StoreConfig
	applyStoreURI(&s, "s3://my-bucket/runs/2026")
	require.Equal(t, "s3", s.Backend)
	require.Equal(t, "my-bucket", s.Bucket)
	require.Equal(t, "runs/2026", s.Prefix)

	var s2 StoreConfig
	applyStoreURI(&s2, "sqlite:/data/mripipes.db")
	require.Equal(t, "sqlite", s2.Backend)
	require.Equal(t, "/data/mripipes.db", s2.Path)

	var s3Plain StoreConfig
	applyStoreURI(&s3Plain, "/data/plain.db")
	require.Equal(t, "sqlite", s3Plain.Backend)
	require.Equal(t, "/data/plain.db", s3Plain.Path)
}
