// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogama/httptask/request"
	"github.com/gogama/httptask/timeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.StartTasksImmediately)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, request.Percent, cfg.ParameterEncoding)
	assert.Empty(t, cfg.BaseURL)
	assert.NotNil(t, cfg.Headers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
	t.Run("full file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
base_url = "  http://httpbin.org/  "
start_tasks_immediately = false
timeout = "250ms"
connect_timeout = "1s"
parameter_encoding = "JSON"

[method_timeouts]
post = "30s"
PUT = "1m"

[headers]
Accept = "application/json"
X-Client = "httptask"

[log]
level = "debug"
format = "json"
outputs = ["stdout", "app.log"]

[log.rotation]
enable = true
filename = "~/logs/app.log"
max_size_mb = 5
compress = false
`), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "http://httpbin.org/", cfg.BaseURL)
		assert.False(t, cfg.StartTasksImmediately)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
		assert.Equal(t, time.Second, cfg.ConnectTimeout)
		assert.Equal(t, map[string]time.Duration{"POST": 30 * time.Second, "PUT": time.Minute}, cfg.MethodTimeouts)
		assert.Equal(t, request.JSON, cfg.ParameterEncoding)
		assert.Equal(t, map[string]string{"Accept": "application/json", "X-Client": "httptask"}, cfg.Headers)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, []string{"stdout", "app.log"}, cfg.Log.Outputs)
		assert.True(t, cfg.Log.Rotation.Enable)
		assert.True(t, strings.HasPrefix(cfg.Log.Rotation.Filename, home))
		assert.Equal(t, 5, cfg.Log.Rotation.MaxSizeMB)
		assert.Equal(t, 3, cfg.Log.Rotation.MaxBackups)
		assert.False(t, cfg.Log.Rotation.Compress)
	})
	t.Run("read error", func(t *testing.T) {
		_, err := Load(t.TempDir())

		assert.Error(t, err)
	})
}

func TestParse(t *testing.T) {
	t.Run("empty uses defaults", func(t *testing.T) {
		cfg, err := Parse(nil)

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
	t.Run("blank values use defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(`
timeout = "  "
parameter_encoding = ""
[log]
level = " "
`))

		require.NoError(t, err)
		assert.Equal(t, defaultTimeout, cfg.Timeout)
		assert.Equal(t, request.Percent, cfg.ParameterEncoding)
		assert.Equal(t, "info", cfg.Log.Level)
	})
	errorCases := []struct {
		name string
		data string
	}{
		{"syntax", `base_url = `},
		{"timeout", `timeout = "soon"`},
		{"negative timeout", `timeout = "-1s"`},
		{"encoding", `parameter_encoding = "xml"`},
		{"method timeout method", "[method_timeouts]\nTRACE = \"1s\""},
		{"method timeout value", "[method_timeouts]\nGET = \"later\""},
		{"negative method timeout", "[method_timeouts]\nGET = \"-2s\""},
		{"level", "[log]\nlevel = \"loud\""},
		{"format", "[log]\nformat = \"yaml\""},
	}
	for _, errorCase := range errorCases {
		t.Run(errorCase.name, func(t *testing.T) {
			_, err := Parse([]byte(errorCase.data))

			assert.Error(t, err)
		})
	}
}

func TestConfig_TimeoutPolicy(t *testing.T) {
	cfg := Default()
	assert.Equal(t, timeout.Fixed(defaultTimeout), cfg.TimeoutPolicy())

	cfg.Timeout = 0
	assert.Equal(t, timeout.Infinite, cfg.TimeoutPolicy())

	cfg.Timeout = 2 * time.Second
	cfg.MethodTimeouts = map[string]time.Duration{"POST": time.Minute}
	p := cfg.TimeoutPolicy()
	assert.Equal(t, time.Minute, p.Timeout(httptest.NewRequest("POST", "/", nil)))
	assert.Equal(t, 2*time.Second, p.Timeout(httptest.NewRequest("GET", "/", nil)))
}
