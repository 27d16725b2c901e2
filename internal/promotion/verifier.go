package promotion

import (
	"context"
	"fmt"
	"log/slog"

	"lathe/internal/logging"
	"lathe/internal/services/pipelinetest"
)

// Verifier runs post-promotion validation tests through the tester
// collaborator. Any non-success response becomes Success=false with the
// test payload preserved for diagnostics. No retry.
type Verifier struct {
	runner pipelinetest.Runner
	logger *slog.Logger
}

// NewVerifier builds a verifier over a test runner.
func NewVerifier(runner pipelinetest.Runner, logger *slog.Logger) *Verifier {
	return &Verifier{runner: runner, logger: logging.NewComponentLogger(logger, "verifier")}
}

// Verify runs the validation suite against one promoted artifact.
func (v *Verifier) Verify(ctx context.Context, artifactID string) *VerificationResult {
	result := &VerificationResult{ArtifactID: artifactID}
	if v.runner == nil {
		// No tester configured: the promotion stands on its own.
		result.Success = true
		return result
	}

	report, err := v.runner.RunValidation(ctx, artifactID)
	if err != nil {
		v.logger.Error("post-promotion tests failed to run", logging.String("artifact_id", artifactID), logging.Error(err))
		result.Error = err.Error()
		return result
	}

	result.TestResults = report
	result.Success = report.Passed()
	if !result.Success {
		result.Error = fmt.Sprintf("%d of %d post-promotion tests failed", report.Summary.Failed, report.Summary.Total)
	}

	v.logger.Info("post-promotion tests finished",
		logging.String("artifact_id", artifactID),
		logging.Bool("success", result.Success),
		logging.Int("total", report.Summary.Total),
		logging.Int("failed", report.Summary.Failed))
	return result
}
