package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"vidsub/internal/batch"
	"vidsub/internal/config"
)

const userAgent = "vidsub/0.1.0"

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary batch.Summary) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		onlyFailures: cfg.Notifications.OnlyFailures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	onlyFailures bool
}

// NotifyRunCompleted sends a run summary. Runs that skipped every file are
// not reported, nor are clean runs when only failures are wanted.
func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary batch.Summary) error {
	if summary.Total == 0 || summary.Skipped == summary.Total {
		return nil
	}
	clean := summary.Failed == 0 && summary.Partial == 0
	if clean && n.onlyFailures {
		return nil
	}

	duration := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	root := filepath.Base(summary.Root)
	data := payload{tags: []string{"vidsub", "run", "completed"}}
	if clean {
		data.title = "vidsub - Subtitles Ready"
		data.message = fmt.Sprintf("%s: %d subtitled, %d skipped in %s", root, summary.Succeeded, summary.Skipped, duration)
	} else {
		data.title = "vidsub - Run Complete (with errors)"
		data.message = fmt.Sprintf("%s: %d succeeded, %d partial, %d failed, %d skipped in %s",
			root, summary.Succeeded, summary.Partial, summary.Failed, summary.Skipped, duration)
		if failed := failedNames(summary, 3); failed != "" {
			data.message += "\nFailed: " + failed
		}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
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
		title:    "vidsub - Error",
		message:  builder.String(),
		tags:     []string{"vidsub", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "vidsub - Test",
		message:  "Notification system test",
		tags:     []string{"vidsub", "test"},
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

func failedNames(summary batch.Summary, limit int) string {
	var names []string
	extra := 0
	for _, r := range summary.Results {
		if r.Status != batch.StatusFailed && r.Status != batch.StatusPartial {
			continue
		}
		if len(names) == limit {
			extra++
			continue
		}
		names = append(names, filepath.Base(r.Path))
	}
	out := strings.Join(names, ", ")
	if extra > 0 {
		out += fmt.Sprintf(" (+%d more)", extra)
	}
	return out
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, batch.Summary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
