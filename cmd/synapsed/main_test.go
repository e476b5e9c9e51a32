package main

import (
	"path/filepath"
	"testing"

	"github.com/rahulptl/synapse-sub001/internal/config"
)

func TestBuildSocketPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data")

	expected := filepath.Join(cfg.Paths.DataDir, "synapsed.sock")
	if got := buildSocketPath(&cfg); got != expected {
		t.Fatalf("expected socket path %q, got %q", expected, got)
	}

	cfg.Paths.SocketPath = filepath.Join(t.TempDir(), "custom.sock")
	if got := buildSocketPath(&cfg); got != cfg.Paths.SocketPath {
		t.Fatalf("expected explicit socket path %q, got %q", cfg.Paths.SocketPath, got)
	}

	if got := buildSocketPath(nil); filepath.Base(got) != "synapsed.sock" {
		t.Fatalf("expected fallback socket name, got %q", got)
	}
}
