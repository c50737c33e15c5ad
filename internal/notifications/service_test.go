package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tidycore/internal/config"
	"tidycore/internal/notifications"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func newCapturingService(t *testing.T, mutate func(*config.Config)) (notifications.Service, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if mutate != nil {
		mutate(&cfg)
	}
	return notifications.NewService(&cfg), &requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyEngineStarted(context.Background(), 2); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyMoveFailedFormatsPayload(t *testing.T) {
	svc, requests := newCapturingService(t, nil)

	if err := svc.NotifyMoveFailed(context.Background(), "/watch/report.pdf", "conflict_exhausted"); err != nil {
		t.Fatalf("NotifyMoveFailed failed: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "TidyCore - Move Failed" {
		t.Fatalf("unexpected title: %q", got.title)
	}
	if got.priority != "high" {
		t.Fatalf("expected high priority, got %q", got.priority)
	}
	if got.tags != "tidycore,move,failed" {
		t.Fatalf("unexpected tags: %q", got.tags)
	}
}

func TestNotifyDecisionRecordedHonorsToggle(t *testing.T) {
	svc, requests := newCapturingService(t, func(cfg *config.Config) {
		cfg.Notifications.Decisions = false
	})

	if err := svc.NotifyDecisionRecorded(context.Background(), "ProjectX", "Images"); err != nil {
		t.Fatalf("NotifyDecisionRecorded failed: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected suppressed notification, got %d requests", len(*requests))
	}
}

func TestNotifyErrorIncludesContextLabel(t *testing.T) {
	svc, requests := newCapturingService(t, nil)

	if err := svc.NotifyError(context.Background(), errors.New("disk full"), "mover"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	if got := (*requests)[0].message; got != "Error with mover: disk full" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
