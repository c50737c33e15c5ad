package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tidycore/internal/daemonctl"
	"tidycore/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tidycore daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Engine started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Engine already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tidycore daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the tidycore daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			stopResult, stopErr := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if stopErr != nil && !errors.Is(stopErr, daemonctl.ErrDaemonNotRunning) {
				return stopErr
			}
			if stopErr == nil {
				if stopResult.ForcedKill && stopResult.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", stopResult.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(ctx, cmd)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func runStatusCommand(ctx *commandContext, cmd *cobra.Command) error {
	cfg := ctx.configValue()
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	var status *ipc.StatusResponse
	if client, err := ctx.dialClient(); err == nil {
		resp, statusErr := client.Status()
		_ = client.Close()
		if statusErr == nil {
			status = resp
		}
	}

	for _, line := range renderSectionHeader("Daemon Status", colorize) {
		fmt.Fprintln(stdout, line)
	}

	switch {
	case status == nil:
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "Not running (run `tidycore start`)", colorize))
	case status.Running:
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Engine", statusOK,
			fmt.Sprintf("Watching %d roots since %s", len(status.Roots), formatTimestamp(status.StartedAt)), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Moves", statusInfo,
			fmt.Sprintf("%d completed, %d paths pending", status.MovesCompleted, status.PendingPaths), colorize))
		if status.DroppedStatus > 0 {
			fmt.Fprintln(stdout, renderStatusLine("Events", statusWarn,
				fmt.Sprintf("%d status events dropped", status.DroppedStatus), colorize))
		}
	default:
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Engine", statusWarn, "Stopped (run `tidycore start`)", colorize))
	}

	if cfg != nil {
		notifKind := statusWarn
		if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
			notifKind = statusOK
		}
		fmt.Fprintln(stdout, renderStatusLine("Notifications", notifKind,
			fmt.Sprintf("configured: %s", yesNo(notifKind == statusOK)), colorize))
	}
	if status != nil && status.ConfigPath != "" {
		fmt.Fprintln(stdout, renderStatusLine("Config", statusInfo, status.ConfigPath, colorize))
	} else if ctx.configPath != "" {
		fmt.Fprintln(stdout, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Watched Roots", colorize) {
		fmt.Fprintln(stdout, line)
	}

	rows := make([][]string, 0, 4)
	if status != nil && len(status.Roots) > 0 {
		for _, root := range status.Roots {
			rows = append(rows, []string{root.Root, root.State})
		}
	} else if cfg != nil {
		for _, root := range cfg.Paths.TargetFolders {
			rows = append(rows, []string{root, "unknown (engine offline)"})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No watched roots configured")
		return nil
	}
	fmt.Fprintln(stdout, renderTable([]string{"Root", "State"}, rows, []columnAlignment{alignLeft, alignLeft}))
	return nil
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
