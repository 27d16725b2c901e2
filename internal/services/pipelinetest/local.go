package pipelinetest

import (
	"context"
	"fmt"
	"strings"

	"lathe/internal/blob"
	"lathe/internal/catalog"
)

// LocalRunner validates a promoted artifact directly against the production
// stores. It stands in for the tester Lambda on the local backend: the same
// report shape, computed from what the promotion actually wrote.
type LocalRunner struct {
	production catalog.Store
	blobs      blob.Store
	bucket     string
	keyPrefix  string
}

// NewLocalRunner builds a runner bound to the production environment.
func NewLocalRunner(production catalog.Store, blobs blob.Store, bucket, keyPrefix string) *LocalRunner {
	return &LocalRunner{production: production, blobs: blobs, bucket: bucket, keyPrefix: keyPrefix}
}

// RunValidation checks that the promoted record and its objects exist in
// production and that the record carries production labeling.
func (r *LocalRunner) RunValidation(ctx context.Context, artifactID string) (*Report, error) {
	report := &Report{TestSuite: SuiteValidation}

	record, err := r.production.Query(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	report.add("production record exists", record != nil,
		fmt.Sprintf("no production record for %s", artifactID))

	if record != nil {
		report.add("production environment label", record.Environment != "" && record.Environment != record.PromotedFrom,
			fmt.Sprintf("record environment %q does not look like production", record.Environment))
		report.add("promotion timestamp recorded", strings.TrimSpace(record.PromotedAt) != "",
			"production record is missing promotedAt")
	}

	objects, err := r.blobs.List(ctx, r.bucket, r.keyPrefix+artifactID+"/")
	if err != nil {
		return nil, err
	}
	report.add("production objects exist", len(objects) > 0,
		fmt.Sprintf("no objects under %s%s/ in %s", r.keyPrefix, artifactID, r.bucket))

	return report, nil
}

func (r *Report) add(name string, passed bool, failMessage string) {
	outcome := TestOutcome{Name: name, Passed: passed}
	if !passed {
		outcome.Message = failMessage
	}
	r.Tests = append(r.Tests, outcome)
	r.Summary.Total++
	if passed {
		r.Summary.Passed++
	} else {
		r.Summary.Failed++
	}
}
