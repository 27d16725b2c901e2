package pipelinetest

import (
	"context"
	"testing"
	"time"

	"lathe/internal/catalog"
	"lathe/internal/testsupport"
)

func TestLocalRunnerPassesForPromotedArtifact(t *testing.T) {
	ctx := context.Background()
	production := testsupport.NewMemoryCatalog()
	blobs := testsupport.NewMemoryBlobs()

	record := &catalog.Record{
		ID:           "track-1",
		CreatedDate:  "2026-08-20T10:00:00Z",
		Status:       catalog.StatusProcessed,
		Title:        "Track",
		Environment:  "prod",
		PromotedFrom: "staging",
		PromotedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := production.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := blobs.Put(ctx, "prod-media", "audio/track-1/track.wav", []byte("riff"), nil); err != nil {
		t.Fatalf("blob Put: %v", err)
	}

	runner := NewLocalRunner(production, blobs, "prod-media", "audio/")
	report, err := runner.RunValidation(ctx, "track-1")
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if !report.Passed() {
		t.Fatalf("expected passing report: %+v", report)
	}
}

func TestLocalRunnerFailsWhenNothingPromoted(t *testing.T) {
	runner := NewLocalRunner(testsupport.NewMemoryCatalog(), testsupport.NewMemoryBlobs(), "prod-media", "audio/")

	report, err := runner.RunValidation(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if report.Passed() {
		t.Fatalf("expected failing report: %+v", report)
	}
	if report.Summary.Failed == 0 {
		t.Fatalf("failures must be counted: %+v", report.Summary)
	}
}
