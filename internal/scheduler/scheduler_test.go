package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lathe/internal/catalog"
	"lathe/internal/logging"
	"lathe/internal/notify"
	"lathe/internal/promotion"
	"lathe/internal/testsupport"
)

var fixedNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

type stubWorkflow struct {
	mu       sync.Mutex
	ran      []string
	failIDs  map[string]bool
	inFlight bool
}

func (s *stubWorkflow) Run(ctx context.Context, artifactID string) *promotion.WorkflowResult {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		panic("workflows overlapped within a batch")
	}
	s.inFlight = true
	s.ran = append(s.ran, artifactID)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	result := &promotion.WorkflowResult{ArtifactID: artifactID, Success: !s.failIDs[artifactID]}
	if !result.Success {
		result.Error = "workflow failed"
	}
	return result
}

type recorderTimer struct {
	calls []BatchPayload
	at    []time.Time
	err   error
}

func (r *recorderTimer) RunAt(ctx context.Context, at time.Time, payload BatchPayload) error {
	r.calls = append(r.calls, payload)
	r.at = append(r.at, at)
	return r.err
}

func promotableRecord(id string, age time.Duration) *catalog.Record {
	return &catalog.Record{
		ID:          id,
		CreatedDate: fixedNow.Add(-age).Format(time.RFC3339),
		Status:      catalog.StatusProcessed,
		Title:       "Track " + id,
		Filename:    id + ".wav",
		FileURL:     "s3://staging-media/audio/" + id + "/" + id + ".wav",
		FileSize:    2 << 20,
		Duration:    30,
	}
}

type schedulerFixture struct {
	staging  *testsupport.MemoryCatalog
	runner   *stubWorkflow
	notifier *testsupport.RecorderNotifier
	timer    *recorderTimer
	sched    *Scheduler
}

func newSchedulerFixture(t *testing.T, opts ...testsupport.ConfigOption) *schedulerFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	f := &schedulerFixture{
		staging:  testsupport.NewMemoryCatalog(),
		runner:   &stubWorkflow{failIDs: map[string]bool{}},
		notifier: testsupport.NewRecorderNotifier(),
		timer:    &recorderTimer{},
	}
	f.sched = New(cfg, f.staging, f.runner, f.notifier, f.timer, logging.NewNop()).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *schedulerFixture) put(t *testing.T, record *catalog.Record) {
	t.Helper()
	if err := f.staging.Put(context.Background(), record); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestScanCandidatesAppliesGracePeriod(t *testing.T) {
	f := newSchedulerFixture(t)
	f.put(t, promotableRecord("young", 30*time.Minute))
	f.put(t, promotableRecord("old", 2*time.Hour))

	candidates, err := f.sched.ScanCandidates(context.Background())
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ArtifactID != "old" {
		t.Fatalf("expected only the aged record, got %+v", candidates)
	}

	// the same record crosses the threshold once its age passes the grace period
	f.sched.WithClock(func() time.Time { return fixedNow.Add(31 * time.Minute) })
	candidates, err = f.sched.ScanCandidates(context.Background())
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both records after aging, got %+v", candidates)
	}
}

func TestScanCandidatesExcludesPromoted(t *testing.T) {
	f := newSchedulerFixture(t)
	promoted := promotableRecord("done", 2*time.Hour)
	promoted.PromotionStatus = catalog.PromotionPromoted
	f.put(t, promoted)
	f.put(t, promotableRecord("pending", 2*time.Hour))

	candidates, err := f.sched.ScanCandidates(context.Background())
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ArtifactID != "pending" {
		t.Fatalf("promoted records must never reappear as candidates: %+v", candidates)
	}
}

func TestScanCandidatesSortsOldestFirst(t *testing.T) {
	f := newSchedulerFixture(t)
	f.put(t, promotableRecord("b", 3*time.Hour))
	f.put(t, promotableRecord("a", 5*time.Hour))
	f.put(t, promotableRecord("c", 2*time.Hour))

	candidates, err := f.sched.ScanCandidates(context.Background())
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	var got []string
	for _, c := range candidates {
		got = append(got, c.ArtifactID)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate order = %v, want %v", got, want)
		}
	}
}

func TestScanCandidatesSkipsUnparseableCreatedDate(t *testing.T) {
	f := newSchedulerFixture(t)
	broken := promotableRecord("broken", 2*time.Hour)
	broken.CreatedDate = "yesterday-ish"
	f.put(t, broken)

	candidates, err := f.sched.ScanCandidates(context.Background())
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("garbage createdDate must not promote: %+v", candidates)
	}
}

func TestRunBatchPacing(t *testing.T) {
	f := newSchedulerFixture(t)
	for i := 0; i < 12; i++ {
		f.put(t, promotableRecord(fmt.Sprintf("track-%02d", i), 2*time.Hour))
	}

	result := f.sched.RunBatch(context.Background(), 5)
	if result.Scanned != 12 {
		t.Fatalf("scanned = %d, want 12", result.Scanned)
	}
	if got := result.Promoted + result.Failed; got != 5 {
		t.Fatalf("processed = %d, want 5", got)
	}
	if len(f.runner.ran) != 5 {
		t.Fatalf("workflows run = %d, want 5", len(f.runner.ran))
	}
	if !result.Rescheduled {
		t.Fatal("expected a follow-up run with candidates remaining")
	}
	if len(f.timer.calls) != 1 {
		t.Fatalf("expected exactly one scheduling call, got %d", len(f.timer.calls))
	}
	if got := f.timer.at[0]; !got.Equal(fixedNow.Add(60 * time.Minute)) {
		t.Fatalf("follow-up at %v, want %v", got, fixedNow.Add(60*time.Minute))
	}
	if got := f.notifier.CountKind("batch_completed"); got != 1 {
		t.Fatalf("expected one batch summary notification, got %d", got)
	}
}

func TestRunBatchNoRescheduleWhenDrained(t *testing.T) {
	f := newSchedulerFixture(t)
	f.put(t, promotableRecord("track-1", 2*time.Hour))
	f.put(t, promotableRecord("track-2", 2*time.Hour))

	result := f.sched.RunBatch(context.Background(), 5)
	if result.Promoted != 2 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Rescheduled || len(f.timer.calls) != 0 {
		t.Fatal("no follow-up should be scheduled when the batch drains the candidates")
	}
}

func TestRunBatchCountsFailures(t *testing.T) {
	f := newSchedulerFixture(t)
	f.put(t, promotableRecord("good", 2*time.Hour))
	f.put(t, promotableRecord("bad", 2*time.Hour))
	f.runner.failIDs["bad"] = true

	result := f.sched.RunBatch(context.Background(), 5)
	if result.Promoted != 1 || result.Failed != 1 {
		t.Fatalf("promoted=%d failed=%d, want 1/1", result.Promoted, result.Failed)
	}
}

func TestRunBatchNotificationListsEveryAttempt(t *testing.T) {
	f := newSchedulerFixture(t)
	f.put(t, promotableRecord("good", 2*time.Hour))
	f.put(t, promotableRecord("bad", 2*time.Hour))
	f.runner.failIDs["bad"] = true

	f.sched.RunBatch(context.Background(), 5)

	summaries := f.notifier.BatchSummaries()
	if len(summaries) != 1 {
		t.Fatalf("expected one batch summary, got %d", len(summaries))
	}
	attempts := summaries[0].Attempts
	if len(attempts) != 2 {
		t.Fatalf("summary must name every attempted artifact, got %+v", attempts)
	}
	byID := map[string]notify.BatchAttempt{}
	for _, attempt := range attempts {
		byID[attempt.ArtifactID] = attempt
	}
	if !byID["good"].Success {
		t.Fatalf("succeeded attempt misreported: %+v", byID["good"])
	}
	if byID["bad"].Success || byID["bad"].Error != "workflow failed" {
		t.Fatalf("failed attempt must carry its error: %+v", byID["bad"])
	}
}

func TestRunBatchDefaultsMaxPromotions(t *testing.T) {
	f := newSchedulerFixture(t, testsupport.WithMaxBatchSize(3))
	for i := 0; i < 4; i++ {
		f.put(t, promotableRecord(fmt.Sprintf("track-%d", i), 2*time.Hour))
	}

	result := f.sched.RunBatch(context.Background(), 0)
	if result.MaxPromotions != 3 {
		t.Fatalf("maxPromotions = %d, want configured 3", result.MaxPromotions)
	}
	if got := result.Promoted + result.Failed; got != 3 {
		t.Fatalf("processed = %d, want 3", got)
	}
}

func TestRunBatchScanFailureIsStructured(t *testing.T) {
	f := newSchedulerFixture(t)
	f.staging.ScanErr = errors.New("provisioned throughput exceeded")

	result := f.sched.RunBatch(context.Background(), 5)
	if result.Error == "" {
		t.Fatal("scan failure must surface in the result")
	}
	if got := f.notifier.CountKind("batch_completed"); got != 1 {
		t.Fatalf("summary notification must go out even on failure, got %d", got)
	}
}

func TestRunBatchTimerFailureDoesNotFailBatch(t *testing.T) {
	f := newSchedulerFixture(t)
	for i := 0; i < 7; i++ {
		f.put(t, promotableRecord(fmt.Sprintf("track-%d", i), 2*time.Hour))
	}
	f.timer.err = errors.New("schedule quota exceeded")

	result := f.sched.RunBatch(context.Background(), 5)
	if result.Error != "" {
		t.Fatalf("timer failure must not fail the batch: %q", result.Error)
	}
	if result.Rescheduled {
		t.Fatal("rescheduled must reflect the failed registration")
	}
}

func TestRunBatchSurvivesPanickingWorkflow(t *testing.T) {
	f := newSchedulerFixture(t)
	f.put(t, promotableRecord("boom", 2*time.Hour))
	f.runner.failIDs = nil // nil map read is fine; force the panic in Run instead
	f.runner.inFlight = true

	result := f.sched.RunBatch(context.Background(), 5)
	if result.Error == "" {
		t.Fatal("a panic below the scheduler must become a structured error")
	}
	if got := f.notifier.CountKind("error"); got != 1 {
		t.Fatalf("recovered panic must raise an error notification, got %d", got)
	}
}
