// Package lambda binds the decode pipeline to AWS API Gateway proxy events.
package lambda

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

// Handler answers API Gateway invocations.
type Handler struct {
	pipeline *pipeline.Pipeline
}

// NewHandler wraps a built pipeline.
func NewHandler(p *pipeline.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// Handle accepts the raw invocation event so that every payload shape the
// extractor knows reaches it untouched. Events that are not JSON objects
// are answered with a client error rather than an invocation error.
func (h *Handler) Handle(ctx context.Context, event any) (events.APIGatewayProxyResponse, error) {
	requestID := uuid.NewString()
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		requestID = lc.AwsRequestID
	}
	logger := slog.With("request_id", requestID)

	res := h.pipeline.Handle(ctx, event)

	body, err := res.JSON()
	if err != nil {
		logger.Error("failed encoding response", "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    jsonHeaders,
			Body:       `{"error":"internal error"}`,
		}, nil
	}

	logger.Info("invocation finished", res.LogAttrs()...)

	return events.APIGatewayProxyResponse{
		StatusCode: res.StatusCode,
		Headers:    jsonHeaders,
		Body:       string(body),
	}, nil
}
