package promotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"lathe/internal/logging"
	"lathe/internal/services/pipelinetest"
)

type stubRunner struct {
	report *pipelinetest.Report
	err    error
	calls  int
}

func (s *stubRunner) RunValidation(ctx context.Context, artifactID string) (*pipelinetest.Report, error) {
	s.calls++
	return s.report, s.err
}

func passingReport() *pipelinetest.Report {
	return &pipelinetest.Report{
		TestSuite: pipelinetest.SuiteValidation,
		Tests:     []pipelinetest.TestOutcome{{Name: "production record exists", Passed: true}},
		Summary:   pipelinetest.Summary{Total: 1, Passed: 1},
	}
}

func failingReport() *pipelinetest.Report {
	return &pipelinetest.Report{
		TestSuite: pipelinetest.SuiteValidation,
		Tests:     []pipelinetest.TestOutcome{{Name: "production record exists", Passed: false, Message: "missing"}},
		Summary:   pipelinetest.Summary{Total: 1, Failed: 1},
	}
}

func newTestWorkflow(t *testing.T, runner pipelinetest.Runner) (*Workflow, *executorFixture) {
	t.Helper()
	f := newExecutorFixture(t)
	validator := NewValidator(f.cfg, f.staging, f.blobs, logging.NewNop())
	verifier := NewVerifier(runner, logging.NewNop())
	workflow := NewWorkflow(validator, f.executor, verifier, logging.NewNop()).
		WithClock(func() time.Time { return fixedNow })
	return workflow, f
}

func TestWorkflowSuccess(t *testing.T) {
	runner := &stubRunner{report: passingReport()}
	workflow, f := newTestWorkflow(t, runner)
	f.seed(t, "track-1")

	result := workflow.Run(context.Background(), "track-1")
	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 executed steps, got %d", len(result.Steps))
	}
	wantStages := []Stage{StageValidation, StagePromotion, StageTesting}
	for i, step := range result.Steps {
		if step.Stage != wantStages[i] || !step.Success {
			t.Fatalf("step %d = %+v, want successful %s", i, step, wantStages[i])
		}
	}
	if runner.calls != 1 {
		t.Fatalf("verifier should run once, ran %d times", runner.calls)
	}
	if result.FailedStage != "" || result.Error != "" {
		t.Fatalf("unexpected failure fields: %+v", result)
	}
}

func TestWorkflowShortCircuitsOnValidationFailure(t *testing.T) {
	runner := &stubRunner{report: passingReport()}
	workflow, f := newTestWorkflow(t, runner)
	// record exists but has no staging objects, so validation fails
	if err := f.staging.Put(context.Background(), validRecord("track-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	result := workflow.Run(context.Background(), "track-1")
	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Steps) != 1 {
		t.Fatalf("aborted workflow must record only executed steps, got %d", len(result.Steps))
	}
	if result.FailedStage != StageValidation {
		t.Fatalf("failed stage = %q, want %q", result.FailedStage, StageValidation)
	}
	if f.production.Len() != 0 {
		t.Fatal("promotion must not run after failed validation")
	}
	if runner.calls != 0 {
		t.Fatal("verifier must not run after failed validation")
	}
}

func TestWorkflowRecordsPromotionFailure(t *testing.T) {
	runner := &stubRunner{report: passingReport()}
	workflow, f := newTestWorkflow(t, runner)
	f.seed(t, "track-1")
	f.staging.UpdateErr = errors.New("conditional check failed")

	result := workflow.Run(context.Background(), "track-1")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.FailedStage != StagePromotion {
		t.Fatalf("failed stage = %q, want %q", result.FailedStage, StagePromotion)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 executed steps, got %d", len(result.Steps))
	}
	if runner.calls != 0 {
		t.Fatal("verifier must not run after failed promotion")
	}
}

func TestWorkflowFailsWhenTestsFail(t *testing.T) {
	runner := &stubRunner{report: failingReport()}
	workflow, f := newTestWorkflow(t, runner)
	f.seed(t, "track-1")

	result := workflow.Run(context.Background(), "track-1")
	if result.Success {
		t.Fatal("expected failure when post-promotion tests fail")
	}
	if result.FailedStage != StageTesting {
		t.Fatalf("failed stage = %q, want %q", result.FailedStage, StageTesting)
	}
	// promotion itself completed; the artifact stays promoted
	if got := f.staging.Get(validRecord("track-1").Key()); got.PromotionStatus == "" {
		t.Fatal("staging marker should remain set despite failed tests")
	}
	if result.Verification == nil || result.Verification.TestResults == nil {
		t.Fatal("test payload must be preserved for diagnostics")
	}
}

func TestVerifierWithoutRunnerSucceeds(t *testing.T) {
	verifier := NewVerifier(nil, logging.NewNop())
	result := verifier.Verify(context.Background(), "track-1")
	if !result.Success {
		t.Fatal("nil runner should verify trivially")
	}
}

func TestVerifierPreservesRunnerError(t *testing.T) {
	runner := &stubRunner{err: errors.New("invoke timeout")}
	verifier := NewVerifier(runner, logging.NewNop())

	result := verifier.Verify(context.Background(), "track-1")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error == "" {
		t.Fatal("runner error must be preserved")
	}
}
