// Package search runs the rotation x transform search over one image and
// stops at the first successful decode.
package search

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/transform"
)

// Angles are the counter-clockwise rotations tried, in order.
var Angles = []int{0, 90, 180, 270}

// Attempt identifies one point in the search space.
type Attempt struct {
	Angle     int    `json:"angle"`
	Transform string `json:"transform"`
}

// Label renders the attempt as "{transform}_rot{angle}".
func (a Attempt) Label() string {
	return fmt.Sprintf("%s_rot%d", a.Transform, a.Angle)
}

func (a Attempt) String() string { return a.Label() }

// Outcome is the result of a search.
type Outcome struct {
	Found bool
	// Attempt is the winning attempt when Found is set.
	Attempt Attempt
	Matches []barcode.Match
	// Attempts counts decoder invocations, including the winning one.
	Attempts int
	// Err is set when the context was cancelled before the search finished.
	Err error
}

// Event describes one finished attempt for observers.
type Event struct {
	Attempt  Attempt
	Matched  bool
	Err      error
	Duration time.Duration
}

// Observer receives every attempt as it completes.
type Observer func(Event)

// Engine searches an image with a decoder over a fixed transform catalog.
type Engine struct {
	decoder   barcode.Backend
	catalog   []transform.Spec
	angles    []int
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the default transform catalog.
func WithCatalog(specs []transform.Spec) Option {
	return func(e *Engine) { e.catalog = append([]transform.Spec(nil), specs...) }
}

// WithObserver registers an attempt observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New returns an engine over decoder. The decoder is usually a *barcode.Chain.
func New(decoder barcode.Backend, opts ...Option) *Engine {
	e := &Engine{
		decoder: decoder,
		catalog: transform.Catalog(),
		angles:  append([]int(nil), Angles...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search tries every angle (outer) and transform (inner) until the decoder
// returns at least one match. Cancellation is honored between attempts.
func (e *Engine) Search(ctx context.Context, img image.Image) Outcome {
	var out Outcome
	for _, angle := range e.angles {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		rotated, err := codec.Rotate(img, angle)
		if err != nil {
			slog.Warn("rotation failed", "angle", angle, "error", err)
			continue
		}
		for _, spec := range e.catalog {
			if err := ctx.Err(); err != nil {
				out.Err = err
				return out
			}
			attempt := Attempt{Angle: angle, Transform: spec.Name}
			matches, err := e.try(ctx, spec, rotated, attempt)
			if err != nil {
				continue
			}
			out.Attempts++
			if len(matches) > 0 {
				out.Found = true
				out.Attempt = attempt
				out.Matches = matches
				slog.Info("code decoded", "transform", attempt.Label(), "results", len(matches), "attempts", out.Attempts)
				return out
			}
		}
	}
	slog.Info("no code decoded", "attempts", out.Attempts)
	return out
}

// try applies one transform and decodes the result. A transform error or
// panic skips the attempt.
func (e *Engine) try(ctx context.Context, spec transform.Spec, img image.Image, attempt Attempt) (matches []barcode.Match, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = fmt.Errorf("panic in attempt %s: %v", attempt.Label(), r)
		}
		if err != nil {
			slog.Warn("transform failed", "transform", attempt.Label(), "error", err)
		}
		e.notify(Event{Attempt: attempt, Matched: len(matches) > 0, Err: err, Duration: time.Since(start)})
	}()

	transformed, err := spec.Apply(img)
	if err != nil {
		return nil, err
	}
	if transformed == nil {
		return nil, fmt.Errorf("transform %s returned no image", spec.Name)
	}
	matches, derr := e.decoder.Decode(ctx, transformed)
	if derr != nil {
		slog.Warn("decoder failed", "transform", attempt.Label(), "error", derr)
		return nil, nil
	}
	return matches, nil
}

func (e *Engine) notify(ev Event) {
	for _, o := range e.observers {
		o(ev)
	}
}
