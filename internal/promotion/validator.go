package promotion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lathe/internal/blob"
	"lathe/internal/catalog"
	"lathe/internal/config"
	"lathe/internal/logging"
)

// requiredFields is the fixed check order for required record fields.
var requiredFields = []struct {
	name  string
	value func(*catalog.Record) bool
}{
	{"title", func(r *catalog.Record) bool { return strings.TrimSpace(r.Title) != "" }},
	{"filename", func(r *catalog.Record) bool { return strings.TrimSpace(r.Filename) != "" }},
	{"fileUrl", func(r *catalog.Record) bool { return strings.TrimSpace(r.FileURL) != "" }},
	{"duration", func(r *catalog.Record) bool { return r.Duration != 0 }},
}

// Validator decides promotion eligibility for staging artifacts. Validation
// is read-only: two calls without an intervening record change produce the
// same checks in the same order.
type Validator struct {
	staging       catalog.Store
	blobs         blob.Store
	stagingBucket string
	keyPrefix     string
	bounds        config.Promotion
	logger        *slog.Logger
}

// NewValidator builds a validator over the staging environment.
func NewValidator(cfg *config.Config, staging catalog.Store, blobs blob.Store, logger *slog.Logger) *Validator {
	return &Validator{
		staging:       staging,
		blobs:         blobs,
		stagingBucket: cfg.Staging.Bucket,
		keyPrefix:     cfg.Promotion.KeyPrefix,
		bounds:        cfg.Promotion,
		logger:        logging.NewComponentLogger(logger, "validator"),
	}
}

// Validate looks up the staging record and runs every eligibility check
// against it. Failures of any kind, including a missing record and store
// errors, surface as Valid=false with a reason rather than an error.
func (v *Validator) Validate(ctx context.Context, artifactID string) *ValidationResult {
	result := &ValidationResult{ArtifactID: artifactID}

	artifactID = strings.TrimSpace(artifactID)
	if artifactID == "" {
		result.Reason = "artifact id is required"
		return result
	}

	record, err := v.staging.Query(ctx, artifactID)
	if err != nil {
		v.logger.Error("staging record lookup failed", logging.String("artifact_id", artifactID), logging.Error(err))
		result.Reason = fmt.Sprintf("validation error: %v", err)
		return result
	}
	if record == nil {
		result.Reason = fmt.Sprintf("artifact %s not found in staging environment", artifactID)
		return result
	}

	result.Record = record
	result.Valid = true

	v.checkProcessingStatus(result, record)
	v.checkRequiredFields(result, record)
	v.checkFileExistence(ctx, result, artifactID)
	v.checkAudioQuality(result, record)
	v.collectWarnings(result, record)

	v.logger.Info("validated artifact",
		logging.String("artifact_id", artifactID),
		logging.Bool("valid", result.Valid),
		logging.Int("warnings", len(result.Warnings)))
	return result
}

func (v *Validator) checkProcessingStatus(result *ValidationResult, record *catalog.Record) {
	if record.Status != catalog.StatusProcessed {
		result.fail("Processing Status",
			fmt.Sprintf("artifact status is %q, expected %q", record.Status, catalog.StatusProcessed))
		return
	}
	result.pass("Processing Status", "artifact is fully processed")
}

func (v *Validator) checkRequiredFields(result *ValidationResult, record *catalog.Record) {
	for _, field := range requiredFields {
		name := "Required Field: " + field.name
		if !field.value(record) {
			result.fail(name, "missing required field: "+field.name)
			continue
		}
		result.pass(name, field.name+" is present")
	}
}

func (v *Validator) checkFileExistence(ctx context.Context, result *ValidationResult, artifactID string) {
	objects, err := v.blobs.List(ctx, v.stagingBucket, v.keyPrefix+artifactID+"/")
	if err != nil {
		v.logger.Error("staging object listing failed", logging.String("artifact_id", artifactID), logging.Error(err))
		result.fail("File Existence", fmt.Sprintf("could not list staging objects: %v", err))
		return
	}
	if len(objects) == 0 {
		result.fail("File Existence", "audio file not found in staging bucket")
		return
	}
	result.pass("File Existence", "audio file exists in staging bucket")
}

func (v *Validator) checkAudioQuality(result *ValidationResult, record *catalog.Record) {
	const name = "Audio Quality"
	switch {
	case record.Duration < v.bounds.MinDurationSeconds:
		result.fail(name, fmt.Sprintf("duration is too short (less than %g seconds)", v.bounds.MinDurationSeconds))
	case record.Duration > v.bounds.MaxDurationSeconds:
		result.fail(name, fmt.Sprintf("duration is too long (over %g seconds)", v.bounds.MaxDurationSeconds))
	case record.FileSize < v.bounds.MinFileSizeBytes:
		result.fail(name, fmt.Sprintf("file size is too small (under %d bytes, likely corrupted)", v.bounds.MinFileSizeBytes))
	case record.FileSize > v.bounds.MaxFileSizeBytes:
		result.fail(name, fmt.Sprintf("file size is too large (over %d bytes)", v.bounds.MaxFileSizeBytes))
	default:
		result.pass(name, "audio quality checks passed")
	}
}

// collectWarnings records soft-check findings. Warnings never block
// promotion.
func (v *Validator) collectWarnings(result *ValidationResult, record *catalog.Record) {
	if strings.TrimSpace(record.Description) == "" {
		result.Warnings = append(result.Warnings, "no description provided")
	}
	if genre := strings.ToLower(strings.TrimSpace(record.Genre)); genre == "" || genre == "unknown" {
		result.Warnings = append(result.Warnings, "genre not specified")
	}
	if len(record.Tags) == 0 {
		result.Warnings = append(result.Warnings, "no tags specified")
	}
}

func (r *ValidationResult) pass(name, message string) {
	r.Checks = append(r.Checks, CheckResult{Name: name, Passed: true, Message: message})
}

func (r *ValidationResult) fail(name, message string) {
	r.Checks = append(r.Checks, CheckResult{Name: name, Passed: false, Message: message})
	r.Valid = false
}
