package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"lathe/internal/catalog"
	"lathe/internal/logging"
	"lathe/internal/promotion"
	"lathe/internal/scheduler"
	"lathe/internal/testsupport"
)

func newTestHandler(t *testing.T) (*Handler, *testsupport.MemoryCatalog, *testsupport.MemoryBlobs, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	staging := testsupport.NewMemoryCatalog()
	production := testsupport.NewMemoryCatalog()
	blobs := testsupport.NewMemoryBlobs()
	notifier := testsupport.NewRecorderNotifier()
	logger := logging.NewNop()

	validator := promotion.NewValidator(cfg, staging, blobs, logger)
	executor := promotion.NewExecutor(cfg, staging, production, blobs, notifier, logger)
	verifier := promotion.NewVerifier(nil, logger)
	workflow := promotion.NewWorkflow(validator, executor, verifier, logger)
	sched := scheduler.New(cfg, staging, workflow, notifier, scheduler.NopTimer{}, logger)

	return NewHandler(sched, workflow, validator, logger), staging, blobs, cfg.Staging.Bucket
}

func seedArtifact(t *testing.T, staging *testsupport.MemoryCatalog, blobs *testsupport.MemoryBlobs, bucket, id string, age time.Duration) {
	t.Helper()
	ctx := context.Background()
	record := &catalog.Record{
		ID:          id,
		CreatedDate: time.Now().Add(-age).UTC().Format(time.RFC3339),
		Status:      catalog.StatusProcessed,
		Title:       "Track " + id,
		Filename:    id + ".wav",
		FileURL:     "s3://" + bucket + "/audio/" + id + "/" + id + ".wav",
		FileSize:    2 << 20,
		Duration:    30,
	}
	if err := staging.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := blobs.Put(ctx, bucket, "audio/"+id+"/"+id+".wav", []byte("riff"), nil); err != nil {
		t.Fatalf("blob Put: %v", err)
	}
}

func TestParseRequestRejectsUnknownAction(t *testing.T) {
	if _, err := ParseRequest([]byte(`{"action":"reboot"}`)); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if _, err := ParseRequest([]byte(`{}`)); err == nil {
		t.Fatal("expected error for missing action")
	}
	if _, err := ParseRequest([]byte(`{"action":`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestHandleScan(t *testing.T) {
	handler, staging, blobs, bucket := newTestHandler(t)
	seedArtifact(t, staging, blobs, bucket, "track-1", 2*time.Hour)

	resp := handler.Handle(context.Background(), Request{Action: ActionScan})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, resp.Body)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
}

func TestHandleValidateRequiresArtifactID(t *testing.T) {
	handler, _, _, _ := newTestHandler(t)

	resp := handler.Handle(context.Background(), Request{Action: ActionValidate})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(resp.Body, "artifactId") {
		t.Fatalf("body should name the missing field: %s", resp.Body)
	}
}

func TestHandleValidateReportsEligibility(t *testing.T) {
	handler, staging, blobs, bucket := newTestHandler(t)
	seedArtifact(t, staging, blobs, bucket, "track-1", 2*time.Hour)

	resp := handler.Handle(context.Background(), Request{Action: ActionValidate, ArtifactID: "track-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, resp.Body)
	}
	var body struct {
		ReadyForPromotion bool `json:"readyForPromotion"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.ReadyForPromotion {
		t.Fatalf("expected ready for promotion: %s", resp.Body)
	}

	resp = handler.Handle(context.Background(), Request{Action: ActionValidate, ArtifactID: "ghost"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing artifact should produce 400-class response, got %d", resp.StatusCode)
	}
}

func TestHandlePromoteRunsFullWorkflow(t *testing.T) {
	handler, staging, blobs, bucket := newTestHandler(t)
	seedArtifact(t, staging, blobs, bucket, "track-1", 2*time.Hour)

	resp := handler.Handle(context.Background(), Request{Action: ActionPromote, ArtifactID: "track-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, resp.Body)
	}
	var result promotion.WorkflowResult
	if err := json.Unmarshal([]byte(resp.Body), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !result.Success {
		t.Fatalf("workflow failed: %s", resp.Body)
	}
}

func TestHandleBatchReturnsStructuredResult(t *testing.T) {
	handler, staging, blobs, bucket := newTestHandler(t)
	seedArtifact(t, staging, blobs, bucket, "track-1", 2*time.Hour)

	resp := handler.HandleRaw(context.Background(), []byte(`{"action":"batch_promotion","maxPromotions":5}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, resp.Body)
	}
	var result scheduler.BatchResult
	if err := json.Unmarshal([]byte(resp.Body), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.Scanned != 1 || result.Promoted != 1 {
		t.Fatalf("scanned=%d promoted=%d, want 1/1", result.Scanned, result.Promoted)
	}
}

func TestHandleRawRejectsBadPayload(t *testing.T) {
	handler, _, _, _ := newTestHandler(t)
	resp := handler.HandleRaw(context.Background(), []byte(`not json`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
