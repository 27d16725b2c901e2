package pipelinetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"

	"lathe/internal/services"
)

// SuiteValidation runs the tester's full validation suite against one
// promoted artifact.
const SuiteValidation = "validation"

// LambdaAPI is the Lambda client surface the tester client uses.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

// Runner executes post-promotion validation tests for one artifact.
type Runner interface {
	RunValidation(ctx context.Context, artifactID string) (*Report, error)
}

// TestOutcome is one named test's pass/fail result.
type TestOutcome struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Summary aggregates a report's test counts.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report is the structured result the tester collaborator returns.
type Report struct {
	TestSuite string        `json:"testSuite"`
	Tests     []TestOutcome `json:"tests,omitempty"`
	Summary   Summary       `json:"summary"`
}

// Passed reports whether every test in the report succeeded.
func (r *Report) Passed() bool {
	if r == nil {
		return false
	}
	return r.Summary.Failed == 0 && r.Summary.Total > 0
}

type request struct {
	TestType      string `json:"testType"`
	SpecificTrack string `json:"specificTrack,omitempty"`
}

// envelope matches the tester lambda's response shape: a status code plus a
// JSON-encoded body string.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Client invokes the pipeline-tester Lambda function.
type Client struct {
	client   LambdaAPI
	function string
}

// NewClient binds a client to the tester function.
func NewClient(client LambdaAPI, functionName string) (*Client, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipelinetest", "client", "lambda client is required", nil)
	}
	if strings.TrimSpace(functionName) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipelinetest", "client", "function name is required", nil)
	}
	return &Client{client: client, function: functionName}, nil
}

// RunValidation runs the validation suite scoped to one artifact.
func (c *Client) RunValidation(ctx context.Context, artifactID string) (*Report, error) {
	return c.run(ctx, request{TestType: SuiteValidation, SpecificTrack: artifactID})
}

// RunSuite runs an arbitrary named test suite.
func (c *Client) RunSuite(ctx context.Context, testType string) (*Report, error) {
	return c.run(ctx, request{TestType: testType})
}

func (c *Client) run(ctx context.Context, req request) (*Report, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "pipelinetest", "run", "encode request", err)
	}

	out, err := c.client.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName: aws.String(c.function),
		Payload:      payload,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "pipelinetest", "run", c.function, err)
	}
	if out.FunctionError != nil {
		return nil, services.Wrap(services.ErrExternalCall, "pipelinetest", "run",
			fmt.Sprintf("%s reported %s", c.function, aws.ToString(out.FunctionError)), nil)
	}

	var env envelope
	if err := json.Unmarshal(out.Payload, &env); err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "pipelinetest", "run", "decode response", err)
	}
	if env.StatusCode != 200 {
		return nil, services.Wrap(services.ErrExternalCall, "pipelinetest", "run",
			fmt.Sprintf("tester returned status %d: %s", env.StatusCode, strings.TrimSpace(env.Body)), nil)
	}

	var report Report
	if err := json.Unmarshal([]byte(env.Body), &report); err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "pipelinetest", "run", "decode report", err)
	}
	return &report, nil
}
