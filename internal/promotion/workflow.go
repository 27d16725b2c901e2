package promotion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lathe/internal/logging"
)

// Workflow sequences validation, promotion, and verification for one
// artifact. The first failed stage terminates the workflow; no stage is
// re-entered and only executed stages are recorded.
type Workflow struct {
	validator *Validator
	executor  *Executor
	verifier  *Verifier
	clock     func() time.Time
	logger    *slog.Logger
}

// NewWorkflow wires the three promotion stages together.
func NewWorkflow(validator *Validator, executor *Executor, verifier *Verifier, logger *slog.Logger) *Workflow {
	return &Workflow{
		validator: validator,
		executor:  executor,
		verifier:  verifier,
		clock:     time.Now,
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
}

// WithClock overrides the workflow's time source.
func (w *Workflow) WithClock(clock func() time.Time) *Workflow {
	if clock != nil {
		w.clock = clock
	}
	return w
}

// Run executes the full validate, promote, verify chain for one artifact.
// The result is always structured: errors from any stage land in the
// result's failed stage, never in a returned error.
func (w *Workflow) Run(ctx context.Context, artifactID string) *WorkflowResult {
	result := &WorkflowResult{ArtifactID: artifactID, StartTime: w.clock().UTC()}
	defer func() {
		result.EndTime = w.clock().UTC()
	}()

	w.logger.Info("starting promotion workflow", logging.String("artifact_id", artifactID))

	validation := w.validator.Validate(ctx, artifactID)
	result.Validation = validation
	result.record(StageValidation, validation.Valid, validationFailureText(validation))
	if !validation.Valid {
		return result.abort(StageValidation, "validation failed")
	}

	promoted, err := w.executor.Promote(ctx, artifactID, validation)
	result.Promotion = promoted
	result.record(StagePromotion, promoted.Success, errorText(err))
	if !promoted.Success {
		if errors.Is(err, ErrValidationRequired) {
			return result.abort(StagePromotion, err.Error())
		}
		return result.abort(StagePromotion, "promotion failed")
	}

	verification := w.verifier.Verify(ctx, artifactID)
	result.Verification = verification
	result.record(StageTesting, verification.Success, verification.Error)
	if !verification.Success {
		return result.abort(StageTesting, "post-promotion tests failed")
	}

	result.Success = true
	w.logger.Info("promotion workflow succeeded", logging.String("artifact_id", artifactID))
	return result
}

func (r *WorkflowResult) record(stage Stage, success bool, errText string) {
	step := StepResult{Stage: stage, Success: success}
	if !success {
		step.Error = errText
	}
	r.Steps = append(r.Steps, step)
}

func (r *WorkflowResult) abort(stage Stage, reason string) *WorkflowResult {
	r.FailedStage = stage
	r.Error = reason
	return r
}

func validationFailureText(validation *ValidationResult) string {
	if validation.Valid {
		return ""
	}
	if validation.Reason != "" {
		return validation.Reason
	}
	for _, check := range validation.Checks {
		if !check.Passed {
			return check.Message
		}
	}
	return "validation failed"
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
