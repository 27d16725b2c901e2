package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lathe/internal/blob"
	"lathe/internal/catalog"
	"lathe/internal/config"
	"lathe/internal/logging"
	"lathe/internal/notify"
)

// ErrValidationRequired marks a promotion attempted without a passing
// validation. This is a caller contract violation, not a runtime condition:
// the executor refuses before touching either environment.
var ErrValidationRequired = errors.New("promotion requires a passing validation")

// Executor performs the transactional promotion of one validated artifact.
// Steps run in order and are not retried; a failure aborts the remainder.
// Copies into production are idempotent by key, so a partially promoted
// artifact is safe to promote again.
type Executor struct {
	staging    catalog.Store
	production catalog.Store
	blobs      blob.Store
	notifier   notify.Service
	stagingEnv config.Environment
	prodEnv    config.Environment
	keyPrefix  string
	clock      func() time.Time
	logger     *slog.Logger
}

// NewExecutor builds an executor spanning the two environments.
func NewExecutor(cfg *config.Config, staging, production catalog.Store, blobs blob.Store, notifier notify.Service, logger *slog.Logger) *Executor {
	if notifier == nil {
		notifier = notify.NewNop()
	}
	return &Executor{
		staging:    staging,
		production: production,
		blobs:      blobs,
		notifier:   notifier,
		stagingEnv: cfg.Staging,
		prodEnv:    cfg.Production,
		keyPrefix:  cfg.Promotion.KeyPrefix,
		clock:      time.Now,
		logger:     logging.NewComponentLogger(logger, "executor"),
	}
}

// WithClock overrides the executor's time source.
func (e *Executor) WithClock(clock func() time.Time) *Executor {
	if clock != nil {
		e.clock = clock
	}
	return e
}

// Promote moves a validated artifact from staging to production: copy every
// object, insert the relabeled production record, then mark the staging
// record promoted. Exactly one notification is sent per attempt, success or
// failure; notification errors are logged and swallowed.
func (e *Executor) Promote(ctx context.Context, artifactID string, validation *ValidationResult) (result *Result, err error) {
	result = &Result{ArtifactID: artifactID}

	defer func() {
		if err != nil {
			result.Error = err.Error()
			e.notify(ctx, e.notifier.NotifyPromotionFailed(ctx, artifactID, err.Error()))
		}
	}()

	if validation == nil || !validation.Valid || validation.Record == nil {
		return result, ErrValidationRequired
	}
	record := validation.Record

	copied, err := e.copyObjects(ctx, artifactID, record)
	result.CopiedFiles = copied
	if err != nil {
		return result, err
	}
	if len(copied) == 0 {
		return result, fmt.Errorf("no staging objects under %s%s/", e.keyPrefix, artifactID)
	}

	promotedAt := e.clock().UTC()
	prodRecord := e.buildProductionRecord(record, promotedAt)
	if err := e.production.Put(ctx, prodRecord); err != nil {
		return result, fmt.Errorf("insert production record: %w", err)
	}
	result.ProductionRecord = prodRecord

	// Commit point: the staging marker is what excludes this artifact from
	// future candidate scans. Everything before this line is idempotent.
	if err := e.staging.Update(ctx, record.Key(), catalog.PromotedFieldSet(promotedAt)); err != nil {
		return result, fmt.Errorf("mark staging record promoted: %w", err)
	}

	result.Success = true
	result.PromotedAt = promotedAt.Format(time.RFC3339)

	e.logger.Info("promoted artifact",
		logging.String("artifact_id", artifactID),
		logging.String("title", record.Title),
		logging.Int("copied_files", len(copied)))
	e.notify(ctx, e.notifier.NotifyPromotionSucceeded(ctx, artifactID, record.Title, len(copied)))
	return result, nil
}

// copyObjects replicates every staging object for the artifact into the
// production bucket under the identical key, attaching provenance metadata.
// A failure partway through leaves the completed copies in place.
func (e *Executor) copyObjects(ctx context.Context, artifactID string, record *catalog.Record) ([]CopiedFile, error) {
	prefix := e.keyPrefix + artifactID + "/"
	objects, err := e.blobs.List(ctx, e.stagingEnv.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list staging objects: %w", err)
	}

	metadata := map[string]string{
		"artifact-id":       artifactID,
		"promoted-from":     e.stagingEnv.Name,
		"promotion-date":    e.clock().UTC().Format(time.RFC3339),
		"original-filename": record.Filename,
	}

	copied := make([]CopiedFile, 0, len(objects))
	for _, object := range objects {
		if _, err := e.blobs.Copy(ctx, e.stagingEnv.Bucket, object.Key, e.prodEnv.Bucket, object.Key, metadata); err != nil {
			return copied, fmt.Errorf("copy %s: %w", object.Key, err)
		}
		copied = append(copied, CopiedFile{SourceKey: object.Key, DestKey: object.Key, Size: object.Size})
		e.logger.Debug("copied object to production", logging.String("key", object.Key), logging.Int64("size", object.Size))
	}
	return copied, nil
}

// buildProductionRecord derives the production copy of a staging record:
// same identity and content, environment relabeled, URLs rewritten to the
// production bucket.
func (e *Executor) buildProductionRecord(record *catalog.Record, promotedAt time.Time) *catalog.Record {
	prod := record.Clone()
	prod.Environment = e.prodEnv.Name
	prod.PromotedFrom = e.stagingEnv.Name
	prod.PromotedAt = promotedAt.Format(time.RFC3339)
	prod.PromotionStatus = ""
	if prod.FileURL != "" && e.stagingEnv.Bucket != "" {
		prod.FileURL = strings.ReplaceAll(prod.FileURL, e.stagingEnv.Bucket, e.prodEnv.Bucket)
	}
	return prod
}

func (e *Executor) notify(ctx context.Context, err error) {
	if err != nil {
		e.logger.Warn("notification delivery failed", logging.Error(err))
	}
}
