package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahulptl/synapse-sub001/internal/config"
)

func TestLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Storage.SessionThresholdBytes != 50_000 {
		t.Fatalf("unexpected session threshold: %d", cfg.Storage.SessionThresholdBytes)
	}
	if cfg.Storage.LocalContentCapChars != 100_000 {
		t.Fatalf("unexpected local cap: %d", cfg.Storage.LocalContentCapChars)
	}
	if cfg.Sync.MaxBackoffSeconds != 60 {
		t.Fatalf("unexpected max backoff: %d", cfg.Sync.MaxBackoffSeconds)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[remote]",
		`base_url = "https://synapse.example/api/v1/"`,
		`api_key = " secret "`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Remote.BaseURL != "https://synapse.example/api/v1" {
		t.Fatalf("base URL not normalized: %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.APIKey != "secret" {
		t.Fatalf("api key not trimmed: %q", cfg.Remote.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[storage]\nquota_bytes = -1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for negative quota")
	}
}

func TestEnvironmentOverridesAPIKey(t *testing.T) {
	t.Setenv("SYNAPSE_API_KEY", "env-key")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", cfg.Remote.APIKey)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error on second WriteSample")
	}
}

func TestSocketPathDefaultsUnderDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/synapse-test"
	if got := cfg.SocketPath(); got != filepath.Join("/tmp/synapse-test", "synapsed.sock") {
		t.Fatalf("unexpected socket path: %s", got)
	}
	cfg.Paths.SocketPath = "/run/custom.sock"
	if got := cfg.SocketPath(); got != "/run/custom.sock" {
		t.Fatalf("expected explicit socket path, got %s", got)
	}
}
