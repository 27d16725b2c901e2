package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lathe/internal/config"
)

// BatchAttempt is one attempted promotion within a batch.
type BatchAttempt struct {
	ArtifactID string
	Success    bool
	Error      string
}

// BatchSummary is the outcome of one scheduled promotion batch. Attempts
// lists every artifact the batch tried, in processing order.
type BatchSummary struct {
	Scanned     int
	Eligible    int
	Succeeded   int
	Failed      int
	Attempts    []BatchAttempt
	Duration    time.Duration
	Rescheduled bool
}

// Service defines the notification surface exposed to promotion components.
// Implementations deliver best-effort: callers treat delivery failures as
// non-fatal and never let them change a promotion outcome.
type Service interface {
	NotifyPromotionSucceeded(ctx context.Context, artifactID, title string, copiedFiles int) error
	NotifyPromotionFailed(ctx context.Context, artifactID, reason string) error
	NotifyBatchCompleted(ctx context.Context, summary BatchSummary) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds the notification service for the configured backend:
// SNS when a topic ARN is set, ntfy when a topic URL is set, otherwise noop.
func NewService(cfg *config.Config, snsClient SNSAPI) Service {
	if arn := strings.TrimSpace(cfg.Notifications.SNSTopicARN); arn != "" && snsClient != nil {
		return &snsService{client: snsClient, topicARN: arn}
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		return newNtfyService(topic, cfg.Notifications.RequestTimeout)
	}
	return noopService{}
}

// NewNop returns a notification service that discards everything.
func NewNop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

func promotionSucceededPayload(artifactID, title string, copiedFiles int) payload {
	title = strings.TrimSpace(title)
	if title == "" {
		title = artifactID
	}
	return payload{
		title:   "Lathe - Promoted",
		message: fmt.Sprintf("Promoted to production: %s (%d files)", title, copiedFiles),
		tags:    []string{"lathe", "promotion", "completed"},
	}
}

func promotionFailedPayload(artifactID, reason string) payload {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	return payload{
		title:    "Lathe - Promotion Failed",
		message:  fmt.Sprintf("Promotion failed for %s: %s", artifactID, reason),
		tags:     []string{"lathe", "promotion", "failed"},
		priority: "high",
	}
}

func batchCompletedPayload(summary BatchSummary) payload {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Batch complete: %d promoted, %d failed of %d eligible (%d scanned) in %s",
		summary.Succeeded, summary.Failed, summary.Eligible, summary.Scanned, duration)
	for _, attempt := range summary.Attempts {
		if attempt.Success {
			fmt.Fprintf(&builder, "\n✓ %s", attempt.ArtifactID)
			continue
		}
		reason := strings.TrimSpace(attempt.Error)
		if reason == "" {
			reason = "unknown error"
		}
		fmt.Fprintf(&builder, "\n✗ %s - %s", attempt.ArtifactID, reason)
	}
	if summary.Rescheduled {
		builder.WriteString("\nMore candidates remain; follow-up run scheduled")
	}

	title := "Lathe - Batch Complete"
	if summary.Failed > 0 {
		title = "Lathe - Batch Complete (with errors)"
	}
	return payload{
		title:   title,
		message: builder.String(),
		tags:    []string{"lathe", "batch", "completed"},
	}
}

func errorPayload(err error, contextLabel string) payload {
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
	return payload{
		title:    "Lathe - Error",
		message:  builder.String(),
		tags:     []string{"lathe", "error", "alert"},
		priority: "high",
	}
}

func testPayload() payload {
	return payload{
		title:    "Lathe - Test",
		message:  "Notification system test",
		tags:     []string{"lathe", "test"},
		priority: "low",
	}
}

type noopService struct{}

func (noopService) NotifyPromotionSucceeded(context.Context, string, string, int) error { return nil }
func (noopService) NotifyPromotionFailed(context.Context, string, string) error         { return nil }
func (noopService) NotifyBatchCompleted(context.Context, BatchSummary) error            { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
