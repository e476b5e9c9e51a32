package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/daemon"
	"github.com/rahulptl/synapse-sub001/internal/ipc"
	"github.com/rahulptl/synapse-sub001/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	ipcServer, err := ipc.NewServer(ctx, buildSocketPath(cfg), d.Service(), cancel, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("synapsed ready", logging.String("socket", buildSocketPath(cfg)))

	<-ctx.Done()
	logger.Info("synapsed shutting down")
}
