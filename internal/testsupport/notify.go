package testsupport

import (
	"context"
	"sync"

	"lathe/internal/notify"
)

// Notification is one recorded delivery.
type Notification struct {
	Kind       string
	ArtifactID string
	Text       string
}

// RecorderNotifier is a notify.Service that records every delivery.
type RecorderNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	batches       []notify.BatchSummary

	// Err, when set, is returned from every delivery so callers' swallow
	// behavior can be exercised.
	Err error
}

// NewRecorderNotifier creates an empty recorder.
func NewRecorderNotifier() *RecorderNotifier {
	return &RecorderNotifier{}
}

func (r *RecorderNotifier) NotifyPromotionSucceeded(ctx context.Context, artifactID, title string, copiedFiles int) error {
	return r.record(Notification{Kind: "promotion_succeeded", ArtifactID: artifactID, Text: title})
}

func (r *RecorderNotifier) NotifyPromotionFailed(ctx context.Context, artifactID, reason string) error {
	return r.record(Notification{Kind: "promotion_failed", ArtifactID: artifactID, Text: reason})
}

func (r *RecorderNotifier) NotifyBatchCompleted(ctx context.Context, summary notify.BatchSummary) error {
	r.mu.Lock()
	r.batches = append(r.batches, summary)
	r.mu.Unlock()
	return r.record(Notification{Kind: "batch_completed"})
}

func (r *RecorderNotifier) NotifyError(ctx context.Context, err error, contextLabel string) error {
	text := contextLabel
	if err != nil {
		text = err.Error()
	}
	return r.record(Notification{Kind: "error", Text: text})
}

func (r *RecorderNotifier) TestNotification(ctx context.Context) error {
	return r.record(Notification{Kind: "test"})
}

func (r *RecorderNotifier) record(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return r.Err
}

// Notifications returns a copy of everything recorded so far.
func (r *RecorderNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification{}, r.notifications...)
}

// BatchSummaries returns a copy of every recorded batch summary.
func (r *RecorderNotifier) BatchSummaries() []notify.BatchSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.BatchSummary{}, r.batches...)
}

// CountKind reports how many notifications of one kind were recorded.
func (r *RecorderNotifier) CountKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.Kind == kind {
			count++
		}
	}
	return count
}
