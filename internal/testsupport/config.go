package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/rahulptl/synapse-sub001/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "synapsed.sock")
	cfg.Remote.BaseURL = "http://synapse.test/api/v1"
	cfg.Remote.APIKey = "test-key"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithQuotaBytes overrides the primary store quota on the test config.
func WithQuotaBytes(quota int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.QuotaBytes = quota
	}
}

// WithSessionThreshold overrides the overflow threshold on the test config.
func WithSessionThreshold(bytes int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.SessionThresholdBytes = bytes
	}
}
