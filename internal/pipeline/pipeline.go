package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/payload"
	"github.com/MeKo-Tech/codescan/internal/response"
	"github.com/MeKo-Tech/codescan/internal/search"
	"github.com/MeKo-Tech/codescan/internal/transform"
)

// ReasonCancelled is reported when the host cancels a request mid-search.
const ReasonCancelled = "request cancelled"

// Config holds configuration for the decode pipeline.
type Config struct {
	Backends  barcode.Config
	MaxPixels int64
}

// DefaultConfig returns a pipeline config with both backends enabled.
func DefaultConfig() Config {
	return Config{
		Backends:  barcode.DefaultConfig(),
		MaxPixels: codec.DefaultMaxPixels,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg          Config
	availability *barcode.Availability
	catalog      []transform.Spec
	observers    []search.Observer
	onFailure    func(backend string, err error)
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithBackends enables or disables the primary and secondary decoders.
func (b *Builder) WithBackends(primary, secondary bool) *Builder {
	b.cfg.Backends.Primary = primary
	b.cfg.Backends.Secondary = secondary
	return b
}

// WithTryHarder toggles exhaustive decoder search.
func (b *Builder) WithTryHarder(enabled bool) *Builder {
	b.cfg.Backends.TryHarder = enabled
	return b
}

// WithMaxPixels sets the pixel limit for decoded and upscaled images (if >0).
func (b *Builder) WithMaxPixels(n int64) *Builder {
	if n > 0 {
		b.cfg.MaxPixels = n
	}
	return b
}

// WithAvailability skips the backend probe and uses a, e.g. one shared by
// several pipelines or built from custom backends.
func (b *Builder) WithAvailability(a barcode.Availability) *Builder {
	b.availability = &a
	return b
}

// WithCatalog replaces the transform catalog.
func (b *Builder) WithCatalog(specs []transform.Spec) *Builder {
	b.catalog = specs
	return b
}

// WithObserver registers a per-attempt observer.
func (b *Builder) WithObserver(o search.Observer) *Builder {
	if o != nil {
		b.observers = append(b.observers, o)
	}
	return b
}

// WithBackendFailureHook is called whenever a decoder errors or panics.
func (b *Builder) WithBackendFailureHook(fn func(backend string, err error)) *Builder {
	b.onFailure = fn
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if b.cfg.MaxPixels <= 0 {
		return errors.New("max pixels must be > 0")
	}
	if b.availability == nil && !b.cfg.Backends.Primary && !b.cfg.Backends.Secondary {
		return errors.New("at least one barcode backend must be enabled")
	}
	return nil
}

// Pipeline turns inbound requests into response envelopes.
type Pipeline struct {
	cfg          Config
	availability barcode.Availability
	engine       *search.Engine
}

// Build probes the backends and assembles the search engine.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	var avail barcode.Availability
	if b.availability != nil {
		avail = *b.availability
	} else {
		avail = barcode.Probe(b.cfg.Backends)
	}
	if !avail.Any() {
		slog.Warn("No barcode backend available; every request will report no match")
	}

	chain := avail.Chain()
	chain.OnFailure = b.onFailure

	catalog := b.catalog
	if catalog == nil {
		catalog = transform.CatalogWithLimit(b.cfg.MaxPixels)
	}
	opts := make([]search.Option, 0, len(b.observers)+1)
	opts = append(opts, search.WithCatalog(catalog))
	for _, o := range b.observers {
		opts = append(opts, search.WithObserver(o))
	}

	return &Pipeline{
		cfg:          b.cfg,
		availability: avail,
		engine:       search.New(chain, opts...),
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Availability returns the startup probe result.
func (p *Pipeline) Availability() barcode.Availability { return p.availability }

// Transforms lists the transform names in search order.
func (p *Pipeline) Transforms() []string { return transform.Names() }

// Result is the outcome of handling one request.
type Result struct {
	StatusCode int
	// Body is a response.Envelope on success or no match, otherwise a response.ErrorBody.
	Body    any
	Outcome search.Outcome
	Image   *codec.Image
	Err     error
}

// LogAttrs returns the key/value pairs logged once a request finishes. The
// winning transform is only included when something was found.
func (r Result) LogAttrs() []any {
	attrs := []any{"status", r.StatusCode, "found", r.Outcome.Found}
	if r.Outcome.Found {
		attrs = append(attrs, "transform", r.Outcome.Attempt.Label())
	}
	return append(attrs, "attempts", r.Outcome.Attempts)
}

// JSON encodes the body.
func (r Result) JSON() ([]byte, error) { return json.Marshal(r.Body) }

// Envelope returns the success or no-match envelope, if any.
func (r Result) Envelope() (response.Envelope, bool) {
	env, ok := r.Body.(response.Envelope)
	return env, ok
}

// Handle extracts, decodes and searches the image carried by event, which
// is any value produced by encoding/json.
func (p *Pipeline) Handle(ctx context.Context, event any) Result {
	b64, err := payload.Extract(event)
	if err != nil {
		if errors.Is(err, payload.ErrImageNotString) {
			return failure(http.StatusBadRequest, response.ReasonDecodeImage, err)
		}
		slog.Info("no image in request", "error", err)
		return Result{StatusCode: http.StatusBadRequest, Body: response.Err(response.ReasonNoImage, ""), Err: err}
	}

	img, err := codec.DecodeBase64Limited(b64, p.cfg.MaxPixels)
	if err != nil {
		slog.Warn("failed decoding input image", "error", err)
		return failure(http.StatusBadRequest, response.ReasonDecodeImage, err)
	}
	slog.Info("input image", "width", img.Width, "height", img.Height, "mode", img.Mode, "format", img.Format)

	env, out := p.ProcessImage(ctx, img.Image)
	if out.Err != nil {
		return Result{
			StatusCode: http.StatusServiceUnavailable,
			Body:       response.Err(ReasonCancelled, out.Err.Error()),
			Outcome:    out,
			Image:      img,
			Err:        out.Err,
		}
	}
	return Result{StatusCode: http.StatusOK, Body: env, Outcome: out, Image: img}
}

// EventFromBody wraps a raw HTTP body the way an API gateway would: a JSON
// object is passed on as a JSON body, anything else as a base64 body. It
// reports false for an empty body.
func EventFromBody(raw []byte) (map[string]any, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, false
	}
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil && len(obj) > 0 {
		return map[string]any{"body": string(raw)}, true
	}
	return map[string]any{"isBase64Encoded": true, "body": text}, true
}

// DecodeImage decodes an encoded image within the pipeline's pixel limit.
func (p *Pipeline) DecodeImage(data []byte) (*codec.Image, error) {
	return codec.DecodeLimited(data, p.cfg.MaxPixels)
}

// ProcessImage searches an already decoded image.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image) (response.Envelope, search.Outcome) {
	out := p.engine.Search(ctx, img)
	return response.FromOutcome(out), out
}

func failure(status int, reason string, err error) Result {
	return Result{StatusCode: status, Body: response.Err(reason, err.Error()), Err: err}
}
