// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LANGCHAT_PROTOCOL", "LANGCHAT_BASE_URL", "LANGCHAT_ADDR", "LANGCHAT_LOG_LEVEL", "LANGCHAT_LOG_FILE"} {
		t.Setenv(key, "")
	}
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "rest", cfg.Backend.Protocol)
	assert.Equal(t, 0, cfg.Backend.RequestTimeoutSecs, "no request timeout by default")
	assert.Equal(t, time.Duration(0), cfg.Backend.Timeout())
	assert.Equal(t, "# Hello!", cfg.Backend.SourcesPlaceholder)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"bad protocol", func(c *Config) { c.Backend.Protocol = "grpc" }, "backend.protocol"},
		{"relative url", func(c *Config) { c.Backend.BaseURL = "localhost:8000" }, "backend.base_url"},
		{"ftp url", func(c *Config) { c.Backend.BaseURL = "ftp://h" }, "backend.base_url"},
		{"path without slash", func(c *Config) { c.Backend.ChatPath = "api/chat" }, "backend.chat_path"},
		{"negative timeout", func(c *Config) { c.Backend.RequestTimeoutSecs = -1 }, "backend.request_timeout_secs"},
		{"too many retries", func(c *Config) { c.Backend.MaxRetries = 50 }, "backend.max_retries"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad wrap", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "expected ValidateErrors, got %v", err)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromPath_TOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[backend]
protocol = "QUEUED"
base_url = "https://example.hf.space/gradio_api"
`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "queued", cfg.Backend.Protocol)
	assert.Equal(t, "https://example.hf.space/gradio_api", cfg.Backend.BaseURL)
	assert.Equal(t, "/call/respond", cfg.Backend.SubmitPath, "missing keys keep defaults")
	assert.True(t, cfg.UI.ShowTimestamps)
}

func TestLoadFromPath_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"addr":":9090"}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "rest", cfg.Backend.Protocol)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\nprotocol = \"carrier-pigeon\"\n"), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)

	_, err = LoadFromPath(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LANGCHAT_PROTOCOL", "queued")
	t.Setenv("LANGCHAT_BASE_URL", "https://override.example")
	t.Setenv("LANGCHAT_ADDR", ":7000")
	t.Setenv("LANGCHAT_LOG_LEVEL", "debug")
	t.Setenv("LANGCHAT_LOG_FILE", "/tmp/langchat.log")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "queued", cfg.Backend.Protocol)
	assert.Equal(t, "https://override.example", cfg.Backend.BaseURL)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/langchat.log", cfg.Log.File)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Backend.Protocol = "queued"
	cfg.Server.TrustedProxies = []string{"10.0.0.1"}
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# langchat configuration file")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backend, loaded.Backend)
	assert.Equal(t, []string{"10.0.0.1"}, loaded.Server.TrustedProxies)
}

// =============================================================================
// GET/SET
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("backend.protocol", "queued"))
	require.NoError(t, cfg.Set("backend.max_retries", "2"))
	require.NoError(t, cfg.Set("ui.show_timestamps", "false"))
	require.NoError(t, cfg.Set("server.trusted_proxies", "10.0.0.1, 10.0.0.2"))

	v, err := cfg.Get("backend.protocol")
	require.NoError(t, err)
	assert.Equal(t, "queued", v)
	assert.Equal(t, 2, cfg.Backend.MaxRetries)
	assert.False(t, cfg.UI.ShowTimestamps)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)

	_, err = cfg.Get("backend.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("backend.max_retries", "many"))
	assert.Error(t, cfg.Set("ui.show_timestamps", "maybe"))

	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	cfg.Server.TrustedProxies = []string{"a"}
	clone := cfg.Clone()
	clone.Server.TrustedProxies[0] = "b"
	assert.Equal(t, "a", cfg.Server.TrustedProxies[0])
}

// =============================================================================
// GLOBAL
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// called concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestSetGlobal_NotOverwrittenByLazyLoad(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	cfg := Default()
	cfg.Server.Addr = ":1234"
	SetGlobal(cfg)
	assert.Equal(t, ":1234", Global().Server.Addr)
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case changed <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.Backend.Protocol = "queued"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-changed:
		assert.Equal(t, "queued", got.Backend.Protocol)
		assert.Equal(t, "queued", Global().Backend.Protocol)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
