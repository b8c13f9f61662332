package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/codescan/internal/response"
)

// maxBatchItems bounds the payloads accepted by one batch request.
const maxBatchItems = 100

// BatchItemResult is the outcome for one payload of a batch.
type BatchItemResult struct {
	Index      int     `json:"index"`
	StatusCode int     `json:"status_code"`
	Body       any     `json:"body"`
	Duration   float64 `json:"duration_seconds"`
}

// BatchSummary aggregates a batch.
type BatchSummary struct {
	Total         int     `json:"total"`
	Found         int     `json:"found"`
	NotFound      int     `json:"not_found"`
	Failed        int     `json:"failed"`
	TotalDuration float64 `json:"total_duration_seconds"`
}

// BatchResponse is returned by POST /decode/batch.
type BatchResponse struct {
	Results []BatchItemResult `json:"results"`
	Summary BatchSummary      `json:"summary"`
}

// decodeBatchHandler accepts a JSON array of request payloads, each in any
// shape /decode accepts as JSON, and handles them concurrently.
func (s *Server) decodeBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := s.readBody(w, r)
	if err != nil {
		recordRejected("batch")
		writeReadError(w, err)
		return
	}

	var events []any
	if err := json.Unmarshal(raw, &events); err != nil {
		recordRejected("batch")
		s.writeErrorResponse(w, "invalid batch request", err.Error(), http.StatusBadRequest)
		return
	}
	switch {
	case len(events) == 0:
		recordRejected("batch")
		s.writeErrorResponse(w, response.ReasonNoData, "", http.StatusBadRequest)
		return
	case len(events) > maxBatchItems:
		recordRejected("batch")
		s.writeErrorResponse(w, "too many batch items", "", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	results := make([]BatchItemResult, len(events))
	var mu sync.Mutex
	summary := BatchSummary{Total: len(events)}

	var g errgroup.Group
	g.SetLimit(s.batchWorkers)
	for i, ev := range events {
		g.Go(func() error {
			itemStart := time.Now()
			res := s.pipeline.Handle(ctx, ev)
			s.logResult(r, "batch", res)
			results[i] = BatchItemResult{
				Index:      i,
				StatusCode: res.StatusCode,
				Body:       res.Body,
				Duration:   time.Since(itemStart).Seconds(),
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.StatusCode != http.StatusOK:
				summary.Failed++
			case res.Outcome.Found:
				summary.Found++
			default:
				summary.NotFound++
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.TotalDuration = time.Since(start).Seconds()
	writeJSON(w, http.StatusOK, BatchResponse{Results: results, Summary: summary})
}
