package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Remote contains connection settings for the Synapse knowledge-store API.
type Remote struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage contains tiering thresholds and the primary store quota.
type Storage struct {
	// QuotaBytes caps the total size of values held in the primary store.
	QuotaBytes int64 `toml:"quota_bytes"`
	// SessionThresholdBytes is the text size above which the full content is
	// mirrored into the overflow tier.
	SessionThresholdBytes int `toml:"session_threshold_bytes"`
	// LocalContentCapChars is the hard character cap kept in the primary store.
	LocalContentCapChars int `toml:"local_content_cap_chars"`
	// OverflowMaxEntries bounds the volatile overflow tier.
	OverflowMaxEntries int `toml:"overflow_max_entries"`
}

// Sync contains delivery worker tuning.
type Sync struct {
	MaxBackoffSeconds int  `toml:"max_backoff_seconds"`
	StartupDrain      bool `toml:"startup_drain"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Synced         bool   `toml:"synced"`
	Errors         bool   `toml:"errors"`
	Queue          bool   `toml:"queue"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the synapse daemon and CLI.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the IPC socket
//   - Remote: Synapse knowledge-store API connection
//   - Storage: primary-store quota and overflow tiering thresholds
//   - Sync: delivery worker backoff and startup behavior
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Remote        Remote        `toml:"remote"`
	Storage       Storage       `toml:"storage"`
	Sync          Sync          `toml:"sync"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/synapse/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. When no file exists the defaults
// are returned and the third result is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	expansions := []struct {
		name  string
		value *string
	}{
		{"paths.data_dir", &c.Paths.DataDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.socket_path", &c.Paths.SocketPath},
	}
	for _, expansion := range expansions {
		expanded, err := ExpandPath(*expansion.value)
		if err != nil {
			return fmt.Errorf("expand %s: %w", expansion.name, err)
		}
		*expansion.value = expanded
	}

	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	c.Remote.APIKey = strings.TrimSpace(c.Remote.APIKey)
	if key := strings.TrimSpace(os.Getenv("SYNAPSE_API_KEY")); key != "" {
		c.Remote.APIKey = key
	}
	return nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the primary store database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "synapse.db")
}

// SocketPath returns the IPC socket location, defaulting under the data dir.
func (c *Config) SocketPath() string {
	if strings.TrimSpace(c.Paths.SocketPath) != "" {
		return c.Paths.SocketPath
	}
	return filepath.Join(c.Paths.DataDir, "synapsed.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "synapsed.lock")
}

// ExpandPath resolves ~ prefixes and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("absolute path for %s: %w", trimmed, err)
	}
	return abs, nil
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
