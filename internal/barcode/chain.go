package barcode

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// Chain asks its backends in order and returns the first non-empty result.
// Errors and panics from a backend are logged, reported to OnFailure and
// treated as an empty result.
type Chain struct {
	backends []Backend

	// OnFailure, when set, is called for every backend error or panic.
	OnFailure func(backend string, err error)
}

// NewChain returns a chain over backends, in priority order.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: append([]Backend(nil), backends...)}
}

// Name lists the chained backends.
func (c *Chain) Name() string {
	name := "chain("
	for i, b := range c.backends {
		if i > 0 {
			name += ","
		}
		name += b.Name()
	}
	return name + ")"
}

// Len returns the number of chained backends.
func (c *Chain) Len() int { return len(c.backends) }

// Decode never returns an error; a chain with no backends finds nothing.
func (c *Chain) Decode(ctx context.Context, img image.Image) ([]Match, error) {
	for _, b := range c.backends {
		matches, err := safeDecode(ctx, b, img)
		if err != nil {
			slog.Warn("barcode backend failed", "backend", b.Name(), "error", err)
			if c.OnFailure != nil {
				c.OnFailure(b.Name(), err)
			}
			continue
		}
		if len(matches) > 0 {
			slog.Debug("barcode backend matched", "backend", b.Name(), "count", len(matches))
			return matches, nil
		}
	}
	return nil, nil
}

func safeDecode(ctx context.Context, b Backend, img image.Image) (matches []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = fmt.Errorf("panic in %s backend: %v", b.Name(), r)
		}
	}()
	return b.Decode(ctx, img)
}
