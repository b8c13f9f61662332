// Package server exposes the decode pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/response"
	"github.com/MeKo-Tech/codescan/internal/search"
)

// decoder defines the methods needed by the server from a pipeline.
type decoder interface {
	Handle(ctx context.Context, event any) pipeline.Result
	DecodeImage(data []byte) (*codec.Image, error)
	ProcessImage(ctx context.Context, img image.Image) (response.Envelope, search.Outcome)
	Availability() barcode.Availability
	Transforms() []string
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline     decoder
	corsOrigin   string
	maxUploadMB  int64
	timeoutSec   int
	batchWorkers int
	rateLimiter  *RateLimiter
}

// RateLimitConfig enables per-client request limits. Zero limits are off.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	BatchWorkers   int
	PipelineConfig pipeline.Config
	RateLimit      RateLimitConfig
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Time     string `json:"time"`
	Backends int    `json:"backends"`
}

// BackendsResponse is returned by GET /backends.
type BackendsResponse struct {
	Backends  []barcode.Status `json:"backends"`
	Available int              `json:"available"`
}

// TransformsResponse is returned by GET /transforms.
type TransformsResponse struct {
	Angles     []int    `json:"angles"`
	Transforms []string `json:"transforms"`
}

// NewServer builds the pipeline from config and wires its metrics.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.NewBuilder().
		WithConfig(config.PipelineConfig).
		WithObserver(observeAttempt).
		WithBackendFailureHook(recordBackendFailure).
		Build()
	if err != nil {
		return nil, err
	}
	return NewServerWithPipeline(config, pl), nil
}

// NewServerWithPipeline wraps an existing pipeline.
func NewServerWithPipeline(config Config, pl decoder) *Server {
	s := &Server{
		pipeline:     pl,
		corsOrigin:   config.CORSOrigin,
		maxUploadMB:  config.MaxUploadMB,
		timeoutSec:   config.TimeoutSec,
		batchWorkers: config.BatchWorkers,
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.maxUploadMB <= 0 {
		s.maxUploadMB = 10
	}
	if s.batchWorkers <= 0 {
		s.batchWorkers = 4
	}
	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	return s
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/backends", s.corsMiddleware(s.backendsHandler))
	mux.HandleFunc("/transforms", s.corsMiddleware(s.transformsHandler))
	mux.HandleFunc("/decode", s.chain(s.decodeHandler))
	mux.HandleFunc("/decode/image", s.chain(s.decodeImageHandler))
	mux.HandleFunc("/decode/pdf", s.chain(s.decodePDFHandler))
	mux.HandleFunc("/decode/batch", s.chain(s.decodeBatchHandler))
	mux.HandleFunc("/ws/decode", s.decodeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

func (s *Server) chain(h http.HandlerFunc) http.HandlerFunc {
	return s.corsMiddleware(s.requestIDMiddleware(s.rateLimitMiddleware(h)))
}

// requestContext bounds a request by the configured timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeoutSec <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), secondsToDuration(s.timeoutSec))
}
