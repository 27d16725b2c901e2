package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"lathe/internal/catalog"
	"lathe/internal/config"
	"lathe/internal/logging"
	"lathe/internal/notify"
	"lathe/internal/promotion"
)

// Candidate summarizes one staging record eligible for promotion.
type Candidate struct {
	ArtifactID  string  `json:"artifactId"`
	Title       string  `json:"title"`
	CreatedDate string  `json:"createdDate"`
	AgeHours    float64 `json:"ageHours"`
	FileSize    int64   `json:"fileSize"`
	Duration    float64 `json:"duration"`
}

// BatchResult is the structured outcome of one batch run. RunBatch always
// returns one, even when the run itself fails.
type BatchResult struct {
	StartTime     time.Time                   `json:"startTime"`
	EndTime       time.Time                   `json:"endTime"`
	MaxPromotions int                         `json:"maxPromotions"`
	Candidates    []Candidate                 `json:"candidates"`
	Workflows     []*promotion.WorkflowResult `json:"promotions"`
	Scanned       int                         `json:"scanned"`
	Promoted      int                         `json:"promoted"`
	Failed        int                         `json:"failed"`
	Rescheduled   bool                        `json:"rescheduled"`
	Error         string                      `json:"error,omitempty"`
}

// WorkflowRunner runs the full promotion workflow for one artifact.
type WorkflowRunner interface {
	Run(ctx context.Context, artifactID string) *promotion.WorkflowResult
}

// Scheduler paces candidate promotions. Workflows within a batch run
// strictly sequentially; artifact N+1 never starts before N terminates.
type Scheduler struct {
	staging         catalog.Store
	runner          WorkflowRunner
	notifier        notify.Service
	timer           Timer
	maxBatchSize    int
	gracePeriod     time.Duration
	rescheduleDelay time.Duration
	clock           func() time.Time
	logger          *slog.Logger
}

// New builds a scheduler over the staging store and a workflow runner.
func New(cfg *config.Config, staging catalog.Store, runner WorkflowRunner, notifier notify.Service, timer Timer, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		notifier = notify.NewNop()
	}
	if timer == nil {
		timer = NopTimer{}
	}
	return &Scheduler{
		staging:         staging,
		runner:          runner,
		notifier:        notifier,
		timer:           timer,
		maxBatchSize:    cfg.Promotion.MaxBatchSize,
		gracePeriod:     cfg.GracePeriod(),
		rescheduleDelay: cfg.RescheduleDelay(),
		clock:           time.Now,
		logger:          logging.NewComponentLogger(logger, "scheduler"),
	}
}

// WithClock overrides the scheduler's time source.
func (s *Scheduler) WithClock(clock func() time.Time) *Scheduler {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// ScanCandidates returns promotable staging records past the grace period,
// oldest first.
func (s *Scheduler) ScanCandidates(ctx context.Context) ([]Candidate, error) {
	records, err := s.staging.ScanPromotable(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan staging records: %w", err)
	}

	now := s.clock()
	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		age := record.Age(now)
		if age < s.gracePeriod {
			continue
		}
		candidates = append(candidates, Candidate{
			ArtifactID:  record.ID,
			Title:       record.Title,
			CreatedDate: record.CreatedDate,
			AgeHours:    age.Hours(),
			FileSize:    record.FileSize,
			Duration:    record.Duration,
		})
	}

	// Oldest first, so late-arriving artifacts cannot starve earlier ones.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedDate < candidates[j].CreatedDate })

	s.logger.Info("scanned for promotion candidates",
		logging.Int("records", len(records)),
		logging.Int("candidates", len(candidates)))
	return candidates, nil
}

// RunBatch promotes up to maxPromotions candidates. It never fails past its
// boundary: any error lands in the result's Error field, and the batch
// summary notification goes out regardless of outcome.
func (s *Scheduler) RunBatch(ctx context.Context, maxPromotions int) (result *BatchResult) {
	if maxPromotions <= 0 {
		maxPromotions = s.maxBatchSize
	}
	result = &BatchResult{StartTime: s.clock().UTC(), MaxPromotions: maxPromotions}

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("batch run panicked: %v", recovered)
			result.Error = err.Error()
			s.logger.Error("batch run panicked", logging.Any("panic", recovered))
			if notifyErr := s.notifier.NotifyError(ctx, err, "batch run"); notifyErr != nil {
				s.logger.Warn("error notification delivery failed", logging.Error(notifyErr))
			}
		}
		result.EndTime = s.clock().UTC()
	}()

	candidates, err := s.ScanCandidates(ctx)
	if err != nil {
		result.Error = err.Error()
		s.logger.Error("candidate scan failed", logging.Error(err))
		s.notifyBatch(ctx, result)
		return result
	}
	result.Candidates = candidates
	result.Scanned = len(candidates)

	take := len(candidates)
	if take > maxPromotions {
		take = maxPromotions
	}
	for i := 0; i < take; i++ {
		candidate := candidates[i]
		s.logger.Info("processing promotion",
			logging.Int("position", i+1),
			logging.Int("of", take),
			logging.String("artifact_id", candidate.ArtifactID))

		workflow := s.runner.Run(ctx, candidate.ArtifactID)
		result.Workflows = append(result.Workflows, workflow)
		if workflow.Success {
			result.Promoted++
		} else {
			result.Failed++
		}
	}

	if result.Scanned > result.Promoted+result.Failed {
		result.Rescheduled = s.scheduleFollowUp(ctx)
	}

	s.notifyBatch(ctx, result)
	s.logger.Info("batch run finished",
		logging.Int("scanned", result.Scanned),
		logging.Int("promoted", result.Promoted),
		logging.Int("failed", result.Failed),
		logging.Bool("rescheduled", result.Rescheduled))
	return result
}

// scheduleFollowUp registers exactly one one-shot follow-up run. A timer
// failure is logged and reported through the result, not propagated; the
// remaining candidates will be picked up by the next manual or scheduled run.
func (s *Scheduler) scheduleFollowUp(ctx context.Context) bool {
	at := s.clock().Add(s.rescheduleDelay)
	payload := BatchPayload{Action: "batch_promotion", ScheduledBy: "auto", ScheduledAt: at.UTC().Format(time.RFC3339)}
	if err := s.timer.RunAt(ctx, at, payload); err != nil {
		s.logger.Error("follow-up scheduling failed", logging.Error(err))
		return false
	}
	s.logger.Info("scheduled follow-up batch", logging.Duration("delay", s.rescheduleDelay))
	return true
}

func (s *Scheduler) notifyBatch(ctx context.Context, result *BatchResult) {
	attempts := make([]notify.BatchAttempt, 0, len(result.Workflows))
	for _, workflow := range result.Workflows {
		attempts = append(attempts, notify.BatchAttempt{
			ArtifactID: workflow.ArtifactID,
			Success:    workflow.Success,
			Error:      workflow.Error,
		})
	}
	summary := notify.BatchSummary{
		Scanned:     result.Scanned,
		Eligible:    len(result.Workflows),
		Succeeded:   result.Promoted,
		Failed:      result.Failed,
		Attempts:    attempts,
		Duration:    s.clock().UTC().Sub(result.StartTime),
		Rescheduled: result.Rescheduled,
	}
	if err := s.notifier.NotifyBatchCompleted(ctx, summary); err != nil {
		s.logger.Warn("batch notification delivery failed", logging.Error(err))
	}
}
