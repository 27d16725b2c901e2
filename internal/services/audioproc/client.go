// Package audioproc invokes the audio-processing collaborator that
// transcodes uploaded objects and reports extracted metadata. Only the
// metadata and validation portions of its response are consumed.
package audioproc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"

	"lathe/internal/services"
)

// LambdaAPI is the Lambda client surface the processor client uses.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

// Metadata is the extracted-properties portion of a processing result.
// Zero fields mean the processor could not determine the value.
type Metadata struct {
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	Genre      string  `json:"genre"`
}

// Validation is the processor's own file check.
type Validation struct {
	IsValid  bool   `json:"isValid"`
	Message  string `json:"message"`
	FileSize int64  `json:"fileSize"`
}

// Result carries the consumed sub-fields of a processing response.
type Result struct {
	Metadata   *Metadata   `json:"metadata,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
}

type request struct {
	TrackID   string `json:"trackId"`
	SourceKey string `json:"sourceKey"`
}

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type responseBody struct {
	TrackID string `json:"trackId"`
	Result  Result `json:"result"`
}

// Client invokes the audio-processing Lambda function.
type Client struct {
	client   LambdaAPI
	function string
}

// NewClient binds a client to the processor function.
func NewClient(client LambdaAPI, functionName string) (*Client, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "audioproc", "client", "lambda client is required", nil)
	}
	if strings.TrimSpace(functionName) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "audioproc", "client", "function name is required", nil)
	}
	return &Client{client: client, function: functionName}, nil
}

// Process runs the collaborator against one staged object and returns the
// metadata and validation sub-fields of its response.
func (c *Client) Process(ctx context.Context, artifactID, sourceKey string) (*Result, error) {
	payload, err := json.Marshal(request{TrackID: artifactID, SourceKey: sourceKey})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "audioproc", "process", "encode request", err)
	}

	out, err := c.client.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName: aws.String(c.function),
		Payload:      payload,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "audioproc", "process", c.function, err)
	}
	if out.FunctionError != nil {
		return nil, services.Wrap(services.ErrExternalCall, "audioproc", "process",
			fmt.Sprintf("%s reported %s", c.function, aws.ToString(out.FunctionError)), nil)
	}

	var env envelope
	if err := json.Unmarshal(out.Payload, &env); err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "audioproc", "process", "decode response", err)
	}
	if env.StatusCode != 200 {
		return nil, services.Wrap(services.ErrExternalCall, "audioproc", "process",
			fmt.Sprintf("processor returned status %d: %s", env.StatusCode, strings.TrimSpace(env.Body)), nil)
	}

	var body responseBody
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		return nil, services.Wrap(services.ErrExternalCall, "audioproc", "process", "decode result", err)
	}
	return &body.Result, nil
}
