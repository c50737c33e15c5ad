package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tidycore/internal/config"
)

const userAgent = "TidyCore-Go/0.1.0"

// Service defines the notification surface exposed to engine components.
type Service interface {
	NotifyEngineStarted(ctx context.Context, roots int) error
	NotifyEngineStopped(ctx context.Context, movesCompleted int) error
	NotifyMoveFailed(ctx context.Context, path, reason string) error
	NotifyWatcherDegraded(ctx context.Context, root string) error
	NotifyWatcherRecovered(ctx context.Context, root string) error
	NotifyDecisionRecorded(ctx context.Context, folder, category string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		errors:    cfg.Notifications.Errors,
		moves:     cfg.Notifications.Moves,
		decisions: cfg.Notifications.Decisions,
	}
}

// Noop returns a Service that discards every notification.
func Noop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	errors    bool
	moves     bool
	decisions bool
}

func (n *ntfyService) NotifyEngineStarted(ctx context.Context, roots int) error {
	data := payload{
		title:   "TidyCore - Started",
		message: fmt.Sprintf("Watching %d folder(s)", roots),
		tags:    []string{"tidycore", "engine", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEngineStopped(ctx context.Context, movesCompleted int) error {
	data := payload{
		title:   "TidyCore - Stopped",
		message: fmt.Sprintf("Engine stopped after %d move(s)", movesCompleted),
		tags:    []string{"tidycore", "engine", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMoveFailed(ctx context.Context, path, reason string) error {
	if !n.moves && !n.errors {
		return nil
	}
	data := payload{
		title:    "TidyCore - Move Failed",
		message:  fmt.Sprintf("Could not move %s (%s)\nThe file was left in place", path, reason),
		tags:     []string{"tidycore", "move", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWatcherDegraded(ctx context.Context, root string) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "TidyCore - Watcher Degraded",
		message:  fmt.Sprintf("Lost access to %s\nRetrying in the background", root),
		tags:     []string{"tidycore", "watcher", "degraded"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWatcherRecovered(ctx context.Context, root string) error {
	data := payload{
		title:   "TidyCore - Watcher Recovered",
		message: fmt.Sprintf("Watching %s again", root),
		tags:    []string{"tidycore", "watcher", "recovered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDecisionRecorded(ctx context.Context, folder, category string) error {
	if !n.decisions {
		return nil
	}
	data := payload{
		title:   "TidyCore - Folder Organized",
		message: fmt.Sprintf("%s filed under %s\nUndo from the tidycore CLI", folder, category),
		tags:    []string{"tidycore", "decision", "recorded"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "TidyCore - Error",
		message:  builder.String(),
		tags:     []string{"tidycore", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "TidyCore - Test",
		message:  "Notification system test",
		tags:     []string{"tidycore", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyEngineStarted(context.Context, int) error              { return nil }
func (noopService) NotifyEngineStopped(context.Context, int) error              { return nil }
func (noopService) NotifyMoveFailed(context.Context, string, string) error      { return nil }
func (noopService) NotifyWatcherDegraded(context.Context, string) error         { return nil }
func (noopService) NotifyWatcherRecovered(context.Context, string) error        { return nil }
func (noopService) NotifyDecisionRecorded(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
