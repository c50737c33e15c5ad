package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tidycore/internal/daemon"
	"tidycore/internal/daemonctl"
	"tidycore/internal/ipc"
	"tidycore/internal/testsupport"
)

func startTestDaemon(t *testing.T) (*daemon.Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	d, err := daemon.New(cfg, filepath.Join(base, "config.toml"), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(base, "tidycored.sock")
	server, err := ipc.NewServer(ctx, socketPath, d, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()

	t.Cleanup(func() {
		server.Close()
		cancel()
		d.Close()
	})
	return d, socketPath
}

func TestProcessInfoReportsReachableDaemon(t *testing.T) {
	_, socketPath := startTestDaemon(t)

	alive, pid, err := daemonctl.ProcessInfo(socketPath)
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if !alive {
		t.Fatal("expected daemon to be reachable")
	}
	if pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), pid)
	}
}

func TestProcessInfoMissingSocket(t *testing.T) {
	alive, pid, err := daemonctl.ProcessInfo(filepath.Join(t.TempDir(), "absent.sock"))
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected unreachable daemon, got alive=%v pid=%d", alive, pid)
	}
}

func TestEnsureStartedAgainstRunningSocket(t *testing.T) {
	d, socketPath := startTestDaemon(t)

	result, err := daemonctl.EnsureStarted(socketPath, "unused-executable", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.Launched {
		t.Fatal("expected no launch with a live socket")
	}
	if result.State != daemonctl.StartStateStarted {
		t.Fatalf("expected engine start, got %s", result.State)
	}
	if !d.Running() {
		t.Fatal("expected engine running after EnsureStarted")
	}

	again, err := daemonctl.EnsureStarted(socketPath, "unused-executable", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted again: %v", err)
	}
	if again.State != daemonctl.StartStateAlreadyRunning {
		t.Fatalf("expected already_running, got %s", again.State)
	}
}

func TestStopAndTerminateStopsEngineInProcess(t *testing.T) {
	d, socketPath := startTestDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := daemonctl.StopAndTerminate(socketPath, nil, time.Second)
	if err != nil {
		t.Fatalf("StopAndTerminate: %v", err)
	}
	if !result.StopAcknowledged {
		t.Fatal("expected stop acknowledgement")
	}
	if result.ForcedKill {
		t.Fatal("in-process daemon must not be force-killed")
	}
	if d.Running() {
		t.Fatal("expected engine stopped")
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	_, err := daemonctl.StopAndTerminate(filepath.Join(t.TempDir(), "absent.sock"), nil, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := daemonctl.PIDFilePath(t.TempDir())
	if err := daemonctl.WritePIDFile(path); err != nil {
		t.Fatalf("WritePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected pid file content")
	}
}
