package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/config"
)

const userAgent = "Synapse-Go/0.1.0"

// Service defines the notification surface exposed to delivery components.
type Service interface {
	NotifyContentSynced(ctx context.Context, title, remoteID string) error
	NotifyItemFailed(ctx context.Context, title, code, message string) error
	NotifyQueueDrained(ctx context.Context, delivered, failed int, duration time.Duration) error
	NotifyQuotaFallback(ctx context.Context, title string) error
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
		synced:   cfg.Notifications.Synced,
		errors:   cfg.Notifications.Errors,
		queue:    cfg.Notifications.Queue,
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
	synced   bool
	errors   bool
	queue    bool
}

func (n *ntfyService) NotifyContentSynced(ctx context.Context, title, remoteID string) error {
	if !n.synced {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Synapse - Synced",
		message: fmt.Sprintf("Synced to knowledge store: %s (%s)", title, remoteID),
		tags:    []string{"synapse", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, title, code, message string) error {
	if !n.errors {
		return nil
	}
	title = strings.TrimSpace(title)
	text := fmt.Sprintf("Delivery failed: %s", title)
	if code = strings.TrimSpace(code); code != "" {
		text = fmt.Sprintf("%s [%s]", text, code)
	}
	if message = strings.TrimSpace(message); message != "" {
		text = fmt.Sprintf("%s\n%s", text, message)
	}
	data := payload{
		title:    "Synapse - Delivery Failed",
		message:  text,
		tags:     []string{"synapse", "sync", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueDrained(ctx context.Context, delivered, failed int, duration time.Duration) error {
	if !n.queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Synapse - Queue Drained"
		message = fmt.Sprintf("Delivered %d items in %s", delivered, duration)
	} else {
		title = "Synapse - Queue Drained (with errors)"
		message = fmt.Sprintf("Delivered %d items, %d failed in %s", delivered, failed, duration)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"synapse", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQuotaFallback(ctx context.Context, title string) error {
	if !n.errors {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:    "Synapse - Storage Full",
		message:  fmt.Sprintf("Local storage is full; saved a placeholder for: %s", title),
		tags:     []string{"synapse", "storage", "quota"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Synapse - Test",
		message:  "Notification system test",
		tags:     []string{"synapse", "test"},
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

func (noopService) NotifyContentSynced(context.Context, string, string) error { return nil }
func (noopService) NotifyItemFailed(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyQueueDrained(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyQuotaFallback(context.Context, string) error                 { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
