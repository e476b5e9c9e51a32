package main

import (
	"os"
	"path/filepath"

	"github.com/rahulptl/synapse-sub001/internal/config"
)

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "synapsed.sock")
	}
	return cfg.SocketPath()
}
