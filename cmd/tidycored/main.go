// Command tidycored runs the TidyCore daemon in the foreground: it
// loads configuration, starts the IPC server, and runs the watcher
// engine until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tidycore/internal/daemon"
	"tidycore/internal/daemonctl"
	"tidycore/internal/ipc"
	"tidycore/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configPath, _, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	pidPath := daemonctl.PIDFilePath(cfg.Paths.DataDir)
	if err := daemonctl.WritePIDFile(pidPath); err != nil {
		log.Fatalf("write pid file: %v", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, configPath, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, socketPath(cfg), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon run", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("tidycored shutting down")
}
