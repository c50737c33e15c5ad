package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tidycore/internal/daemon"
	"tidycore/internal/ipc"
	"tidycore/internal/testsupport"
)

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	d, err := daemon.New(cfg, filepath.Join(testsupport.BaseDir(cfg), "config.toml"), nil)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func newTestClient(t *testing.T, d *daemon.Daemon) *ipc.Client {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "tidycored.sock")

	ctx, cancel := context.WithCancel(context.Background())
	server, err := ipc.NewServer(ctx, socketPath, d, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.Serve()
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStatusRoundTrip(t *testing.T) {
	d := newTestDaemon(t)
	client := newTestClient(t, d)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected engine to be stopped before Start")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid: %d", status.PID)
	}
	if status.LockPath == "" || status.DecisionDBPath == "" {
		t.Fatalf("expected paths in status, got %+v", status)
	}
}

func TestStartStopRoundTrip(t *testing.T) {
	d := newTestDaemon(t)
	client := newTestClient(t, d)

	started, err := client.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !started.Started {
		t.Fatalf("engine did not start: %s", started.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected engine running after Start")
	}
	if len(status.Roots) != 1 {
		t.Fatalf("expected one watched root, got %d", len(status.Roots))
	}

	stopped, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopped.Stopped {
		t.Fatal("expected stop acknowledgement")
	}
	if d.Running() {
		t.Fatal("expected engine stopped")
	}
}

func TestStatsAndDecisionsEmpty(t *testing.T) {
	d := newTestDaemon(t)
	client := newTestClient(t, d)

	statsResp, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if statsResp.TotalCount != 0 || len(statsResp.Week) != 7 {
		t.Fatalf("unexpected stats: %+v", statsResp)
	}

	listResp, err := client.DecisionList(10)
	if err != nil {
		t.Fatalf("DecisionList failed: %v", err)
	}
	if len(listResp.Decisions) != 0 {
		t.Fatalf("expected no decisions, got %d", len(listResp.Decisions))
	}

	if _, err := client.DecisionUndo("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown decision id")
	}
}

func TestReloadReportsMissingConfig(t *testing.T) {
	d := newTestDaemon(t)
	client := newTestClient(t, d)

	resp, err := client.Reload()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if resp.Reloaded {
		t.Fatal("expected reload to fail without a config file")
	}
	if resp.Message == "" {
		t.Fatal("expected failure message")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	d := newTestDaemon(t)
	client := newTestClient(t, d)

	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if resp.Sent {
		t.Fatal("expected notification to be skipped without topic")
	}
}
