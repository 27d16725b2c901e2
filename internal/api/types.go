package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action discriminates the request union. Every request carries exactly one
// action; the optional fields it needs travel alongside it.
type Action string

const (
	ActionScan     Action = "scan_candidates"
	ActionValidate Action = "validate_candidate"
	ActionPromote  Action = "single_promotion"
	ActionBatch    Action = "batch_promotion"
)

// Request is the tagged union of promotion entry points.
type Request struct {
	Action        Action `json:"action"`
	ArtifactID    string `json:"artifactId,omitempty"`
	MaxPromotions int    `json:"maxPromotions,omitempty"`
}

// Response is a status code plus a JSON body, the shape every entry point
// returns.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ParseRequest decodes a request payload and checks the action tag.
func ParseRequest(payload []byte) (Request, error) {
	var req Request
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return Request{}, fmt.Errorf("decode request: %w", err)
		}
	}
	if req.Action == "" {
		return Request{}, fmt.Errorf("action is required (one of %s)", supportedActions())
	}
	switch req.Action {
	case ActionScan, ActionValidate, ActionPromote, ActionBatch:
		return req, nil
	default:
		return Request{}, fmt.Errorf("unknown action %q (supported: %s)", req.Action, supportedActions())
	}
}

func supportedActions() string {
	return strings.Join([]string{
		string(ActionScan),
		string(ActionValidate),
		string(ActionPromote),
		string(ActionBatch),
	}, ", ")
}
