package promotion

import (
	"time"

	"lathe/internal/catalog"
	"lathe/internal/services/pipelinetest"
)

// CheckResult is one named eligibility check with its outcome.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// ValidationResult is the full outcome of an eligibility decision. Checks
// appear in a fixed order so repeated validations of the same record are
// byte-for-byte comparable.
type ValidationResult struct {
	ArtifactID string          `json:"artifactId"`
	Valid      bool            `json:"valid"`
	Reason     string          `json:"reason,omitempty"`
	Checks     []CheckResult   `json:"checks,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Record     *catalog.Record `json:"record,omitempty"`
}

// CopiedFile describes one object copied into production.
type CopiedFile struct {
	SourceKey string `json:"sourceKey"`
	DestKey   string `json:"destKey"`
	Size      int64  `json:"size"`
}

// Result is the outcome of one promotion attempt.
type Result struct {
	ArtifactID       string          `json:"artifactId"`
	Success          bool            `json:"success"`
	PromotedAt       string          `json:"promotedAt,omitempty"`
	CopiedFiles      []CopiedFile    `json:"copiedFiles,omitempty"`
	ProductionRecord *catalog.Record `json:"productionRecord,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// VerificationResult is the outcome of post-promotion testing.
type VerificationResult struct {
	ArtifactID  string               `json:"artifactId"`
	Success     bool                 `json:"success"`
	TestResults *pipelinetest.Report `json:"testResults,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Stage names one step of the promotion workflow.
type Stage string

const (
	StageValidation Stage = "validation"
	StagePromotion  Stage = "promotion"
	StageTesting    Stage = "testing"
)

// StepResult records one executed workflow stage.
type StepResult struct {
	Stage   Stage  `json:"stage"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WorkflowResult is the terminal state of one artifact's promotion workflow.
// Only executed stages appear in Steps; an aborted workflow carries the
// failed stage and is never successful.
type WorkflowResult struct {
	ArtifactID   string              `json:"artifactId"`
	StartTime    time.Time           `json:"startTime"`
	EndTime      time.Time           `json:"endTime"`
	Steps        []StepResult        `json:"steps"`
	Success      bool                `json:"success"`
	FailedStage  Stage               `json:"failedStage,omitempty"`
	Error        string              `json:"error,omitempty"`
	Validation   *ValidationResult   `json:"validation,omitempty"`
	Promotion    *Result             `json:"promotion,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}
