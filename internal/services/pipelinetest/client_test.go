package pipelinetest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
)

type stubLambda struct {
	inputs  []*awslambda.InvokeInput
	payload []byte
	fnErr   *string
	err     error
}

func (s *stubLambda) Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &awslambda.InvokeOutput{Payload: s.payload, FunctionError: s.fnErr}, nil
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

func TestRunValidationDecodesReport(t *testing.T) {
	stub := &stubLambda{payload: envelopeWith(t, 200, Report{
		TestSuite: SuiteValidation,
		Tests:     []TestOutcome{{Name: "basic processing", Passed: true}},
		Summary:   Summary{Total: 1, Passed: 1},
	})}
	client, err := NewClient(stub, "lathe-pipeline-tester")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	report, err := client.RunValidation(context.Background(), "track-1")
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if !report.Passed() {
		t.Fatalf("expected passing report: %+v", report)
	}

	var req request
	if err := json.Unmarshal(stub.inputs[0].Payload, &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.TestType != SuiteValidation || req.SpecificTrack != "track-1" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestRunValidationNon200IsError(t *testing.T) {
	stub := &stubLambda{payload: envelopeWith(t, 500, map[string]string{"error": "tester exploded"})}
	client, _ := NewClient(stub, "lathe-pipeline-tester")

	_, err := client.RunValidation(context.Background(), "track-1")
	if err == nil {
		t.Fatal("expected error for non-200 envelope")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("status should be preserved: %v", err)
	}
}

func TestRunValidationFunctionError(t *testing.T) {
	stub := &stubLambda{fnErr: aws.String("Unhandled")}
	client, _ := NewClient(stub, "lathe-pipeline-tester")

	if _, err := client.RunValidation(context.Background(), "track-1"); err == nil {
		t.Fatal("expected error when the function reports a failure")
	}
}

func TestRunValidationInvokeError(t *testing.T) {
	stub := &stubLambda{err: errors.New("access denied")}
	client, _ := NewClient(stub, "lathe-pipeline-tester")

	_, err := client.RunValidation(context.Background(), "track-1")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("original error must be preserved: %v", err)
	}
}

func TestReportPassed(t *testing.T) {
	cases := []struct {
		name   string
		report *Report
		want   bool
	}{
		{"nil", nil, false},
		{"empty", &Report{}, false},
		{"all passed", &Report{Summary: Summary{Total: 2, Passed: 2}}, true},
		{"one failed", &Report{Summary: Summary{Total: 2, Passed: 1, Failed: 1}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.report.Passed(); got != tc.want {
				t.Fatalf("Passed() = %v, want %v", got, tc.want)
			}
		})
	}
}
