package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"printq/internal/config"
	"printq/internal/request"
)

const userAgent = "printq/0.1.0"

// Service defines the notification surface exposed to the dispatcher, the
// scheduler, and the CLI.
type Service interface {
	NotifyRequestReceived(ctx context.Context, requestID, title string) error
	NotifyStatusChanged(ctx context.Context, requestID string, status request.Status, title string) error
	NotifyRequestArchived(ctx context.Context, requestID, title string) error
	NotifyCleanupCompleted(ctx context.Context, archived, purged int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		settings: cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	settings config.Notifications
}

func (n *ntfyService) NotifyRequestReceived(ctx context.Context, requestID, title string) error {
	if !n.settings.Intake {
		return nil
	}
	data := payload{
		title:   "printq - New Request",
		message: fmt.Sprintf("New print request #%s: %s", shortID(requestID), strings.TrimSpace(title)),
		tags:    []string{"printq", "request", "received"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStatusChanged(ctx context.Context, requestID string, status request.Status, title string) error {
	if !n.settings.Status {
		return nil
	}
	data := payload{
		title:   "printq - Status Update",
		message: fmt.Sprintf("Request #%s (%s) is now %s", shortID(requestID), strings.TrimSpace(title), status.Label()),
		tags:    []string{"printq", "status", string(status)},
	}
	if status == request.StatusDone {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestArchived(ctx context.Context, requestID, title string) error {
	if !n.settings.Archive {
		return nil
	}
	data := payload{
		title:   "printq - Archived",
		message: fmt.Sprintf("Request #%s (%s) moved to archive", shortID(requestID), strings.TrimSpace(title)),
		tags:    []string{"printq", "archive"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCleanupCompleted(ctx context.Context, archived, purged int) error {
	if !n.settings.Cleanup {
		return nil
	}
	data := payload{
		title:   "printq - Cleanup",
		message: fmt.Sprintf("Cleanup complete: %d archived, %d purged", archived, purged),
		tags:    []string{"printq", "cleanup", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.settings.Errors {
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
		title:    "printq - Error",
		message:  builder.String(),
		tags:     []string{"printq", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "printq - Test",
		message:  "Notification system test",
		tags:     []string{"printq", "test"},
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

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

type noopService struct{}

func (noopService) NotifyRequestReceived(context.Context, string, string) error { return nil }
func (noopService) NotifyStatusChanged(context.Context, string, request.Status, string) error {
	return nil
}
func (noopService) NotifyRequestArchived(context.Context, string, string) error { return nil }
func (noopService) NotifyCleanupCompleted(context.Context, int, int) error      { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
