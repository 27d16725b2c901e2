package audioproc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
)

type stubLambda struct {
	inputs  []*awslambda.InvokeInput
	payload []byte
	err     error
}

func (s *stubLambda) Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &awslambda.InvokeOutput{Payload: s.payload}, nil
}

func envelopeWith(t *testing.T, statusCode int, body any) []byte {
	t.Helper()
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	env, err := json.Marshal(map[string]any{"statusCode": statusCode, "body": string(bodyJSON)})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return env
}

func TestProcessDecodesResult(t *testing.T) {
	stub := &stubLambda{payload: envelopeWith(t, 200, responseBody{
		TrackID: "track-1",
		Result: Result{
			Metadata:   &Metadata{Duration: 187.4, Bitrate: 320, Genre: "jazz"},
			Validation: &Validation{IsValid: true, FileSize: 2_048_000},
		},
	})}
	client, err := NewClient(stub, "lathe-audio-processor")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := client.Process(context.Background(), "track-1", "audio/track-1/track.wav")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Metadata == nil || result.Metadata.Duration != 187.4 {
		t.Fatalf("metadata not decoded: %+v", result)
	}
	if result.Validation == nil || !result.Validation.IsValid {
		t.Fatalf("validation not decoded: %+v", result)
	}

	var req request
	if err := json.Unmarshal(stub.inputs[0].Payload, &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.TrackID != "track-1" || req.SourceKey != "audio/track-1/track.wav" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestProcessNon200IsError(t *testing.T) {
	stub := &stubLambda{payload: envelopeWith(t, 400, map[string]string{"error": "trackId and sourceKey are required"})}
	client, _ := NewClient(stub, "lathe-audio-processor")

	_, err := client.Process(context.Background(), "track-1", "audio/track-1/track.wav")
	if err == nil {
		t.Fatal("expected error for non-200 envelope")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("status should be preserved: %v", err)
	}
}

func TestProcessInvokeError(t *testing.T) {
	stub := &stubLambda{err: errors.New("throttled")}
	client, _ := NewClient(stub, "lathe-audio-processor")

	_, err := client.Process(context.Background(), "track-1", "audio/track-1/track.wav")
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("original error must be preserved: %v", err)
	}
}

func TestNewClientRequiresWiring(t *testing.T) {
	if _, err := NewClient(nil, "fn"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewClient(&stubLambda{}, " "); err == nil {
		t.Fatal("expected error for blank function name")
	}
}
