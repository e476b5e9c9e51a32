package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/daemon"
	"github.com/rahulptl/synapse-sub001/internal/ipc"
	"github.com/rahulptl/synapse-sub001/internal/logging"
	"github.com/rahulptl/synapse-sub001/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	remote     *httptest.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	remote := newFakeRemote()
	t.Cleanup(remote.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Remote.BaseURL = remote.URL + "/api/v1"
	cfg.Sync.StartupDrain = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(cfg.Paths.DataDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}

	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socketPath, d.Service(), func() {}, logging.NewNop())
	if err != nil {
		cancel()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		remote:     remote,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return env
}

func newFakeRemote() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/content/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Title string `json:"title"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"item":    map[string]any{"id": "remote-" + payload.Title},
		})
	})
	mux.HandleFunc("/api/v1/files/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{"id": "upload-1", "file_url": "/files/upload-1"},
		})
	})
	mux.HandleFunc("/api/v1/folders/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"folders": []map[string]any{
				{
					"id":   "f1",
					"name": "Inbox",
					"children": []map[string]any{
						{"id": "f2", "name": "Articles", "parent_id": "f1"},
					},
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	body := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
socket_path = %q

[remote]
base_url = %q
api_key = %q
`, cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.SocketPath, cfg.Remote.BaseURL, cfg.Remote.APIKey)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !bytes.Contains([]byte(haystack), []byte(needle)) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
