package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"lathe/internal/logging"
	"lathe/internal/promotion"
	"lathe/internal/scheduler"
)

// Handler dispatches decoded requests to the promotion components. Every
// path ends in a Response; nothing escapes the handler uncleanly.
type Handler struct {
	scheduler *scheduler.Scheduler
	workflow  *promotion.Workflow
	validator *promotion.Validator
	logger    *slog.Logger
}

// NewHandler wires a dispatcher.
func NewHandler(sched *scheduler.Scheduler, workflow *promotion.Workflow, validator *promotion.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		scheduler: sched,
		workflow:  workflow,
		validator: validator,
		logger:    logging.NewComponentLogger(logger, "api"),
	}
}

// HandleRaw parses a JSON payload and dispatches it.
func (h *Handler) HandleRaw(ctx context.Context, payload []byte) Response {
	req, err := ParseRequest(payload)
	if err != nil {
		return errorResponse(http.StatusBadRequest, err)
	}
	return h.Handle(ctx, req)
}

// Handle executes one request and converts the outcome to a response. A
// panic anywhere below becomes a 500-class response so a scheduled
// invocation always reports a result.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if recovered := recover(); recovered != nil {
			h.logger.Error("request handling panicked", logging.Any("panic", recovered))
			resp = errorResponse(http.StatusInternalServerError, fmt.Errorf("internal error: %v", recovered))
		}
	}()

	h.logger.Info("handling request",
		logging.String("action", string(req.Action)),
		logging.String("artifact_id", req.ArtifactID))

	switch req.Action {
	case ActionScan:
		return h.handleScan(ctx)
	case ActionValidate:
		return h.handleValidate(ctx, req)
	case ActionPromote:
		return h.handlePromote(ctx, req)
	case ActionBatch:
		return h.handleBatch(ctx, req)
	default:
		return errorResponse(http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
	}
}

func (h *Handler) handleScan(ctx context.Context) Response {
	candidates, err := h.scheduler.ScanCandidates(ctx)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func (h *Handler) handleValidate(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.ArtifactID) == "" {
		return errorResponse(http.StatusBadRequest, fmt.Errorf("artifactId is required for %s", ActionValidate))
	}
	result := h.validator.Validate(ctx, req.ArtifactID)
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusBadRequest
	}
	return jsonResponse(status, map[string]any{
		"validation":        result,
		"readyForPromotion": result.Valid,
	})
}

func (h *Handler) handlePromote(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.ArtifactID) == "" {
		return errorResponse(http.StatusBadRequest, fmt.Errorf("artifactId is required for %s", ActionPromote))
	}
	result := h.workflow.Run(ctx, req.ArtifactID)
	return jsonResponse(http.StatusOK, result)
}

func (h *Handler) handleBatch(ctx context.Context, req Request) Response {
	result := h.scheduler.RunBatch(ctx, req.MaxPromotions)
	return jsonResponse(http.StatusOK, result)
}

func jsonResponse(status int, body any) Response {
	data, err := json.Marshal(body)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, fmt.Errorf("encode response: %w", err))
	}
	return Response{StatusCode: status, Body: string(data)}
}

func errorResponse(status int, err error) Response {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Response{StatusCode: status, Body: string(data)}
}
