package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return errors.New("remote.base_url must be set")
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return errors.New("remote.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.QuotaBytes <= 0 {
		return errors.New("storage.quota_bytes must be positive")
	}
	if c.Storage.SessionThresholdBytes <= 0 {
		return errors.New("storage.session_threshold_bytes must be positive")
	}
	if c.Storage.LocalContentCapChars <= 0 {
		return errors.New("storage.local_content_cap_chars must be positive")
	}
	if c.Storage.OverflowMaxEntries <= 0 {
		return errors.New("storage.overflow_max_entries must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.MaxBackoffSeconds <= 0 {
		return errors.New("sync.max_backoff_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
