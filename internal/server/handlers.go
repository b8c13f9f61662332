package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/response"
	"github.com/MeKo-Tech/codescan/internal/search"
	"github.com/MeKo-Tech/codescan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Version:  version.Version,
		Time:     time.Now().UTC().Format(time.RFC3339),
		Backends: len(s.pipeline.Availability().Backends()),
	})
}

// backendsHandler reports the startup capability probe.
func (s *Server) backendsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	avail := s.pipeline.Availability()
	writeJSON(w, http.StatusOK, BackendsResponse{
		Backends:  avail.Statuses(),
		Available: len(avail.Backends()),
	})
}

// transformsHandler lists the search order.
func (s *Server) transformsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, TransformsResponse{
		Angles:     search.Angles,
		Transforms: s.pipeline.Transforms(),
	})
}

// decodeHandler accepts a JSON request or a raw base64 body and answers with
// the pipeline's envelope.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := s.readBody(w, r)
	if err != nil {
		recordRejected("decode")
		writeReadError(w, err)
		return
	}

	event, ok := pipeline.EventFromBody(raw)
	if !ok {
		recordRejected("decode")
		s.writeErrorResponse(w, response.ReasonNoData, "", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	res := s.pipeline.Handle(ctx, event)
	s.logResult(r, "decode", res)
	writeJSON(w, res.StatusCode, res.Body)
}

func (s *Server) logResult(r *http.Request, source string, res pipeline.Result) {
	logger := slog.With("request_id", RequestID(r.Context()), "source", source)
	if res.Err != nil && res.StatusCode == http.StatusBadRequest {
		recordRejected(source)
		logger.Info("request rejected", "status", res.StatusCode, "error", res.Err)
		return
	}
	recordOutcome(source, res.Outcome)
	logger.Info("request finished", res.LogAttrs()...)
}

// readBody reads at most maxUploadMB from the request.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB<<20)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	uploadSizeBytes.Observe(float64(len(raw)))
	return raw, nil
}

func writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, response.Err("request body too large", err.Error()))
		return
	}
	writeJSON(w, http.StatusBadRequest, response.Err("failed to read request body", err.Error()))
}

// writeErrorResponse writes a JSON error body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, reason, details string, statusCode int) {
	writeJSON(w, statusCode, response.Err(reason, details))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
