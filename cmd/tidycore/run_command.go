package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tidycore/internal/daemon"
	"tidycore/internal/daemonctl"
	"tidycore/internal/ipc"
	"tidycore/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stdout", cfg.LogPath()},
				ErrorOutputPaths: []string{"stderr", cfg.LogPath()},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			pidPath := daemonctl.PIDFilePath(cfg.Paths.DataDir)
			if err := daemonctl.WritePIDFile(pidPath); err != nil {
				return fmt.Errorf("write pid file: %w", err)
			}
			defer os.Remove(pidPath)

			d, err := daemon.New(cfg, ctx.configPath, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer ipcServer.Close()
			ipcServer.Serve()

			if err := d.Run(signalCtx); err != nil {
				logger.Error("daemon run", logging.Error(err))
				return err
			}
			logger.Info("tidycore daemon shutting down")
			return nil
		},
	}
}
