package barcode

import (
	"context"
	"image"
	"log/slog"
)

// Backend roles.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// Config selects which backends Probe attempts to bring up.
type Config struct {
	Primary   bool
	Secondary bool
	TryHarder bool
}

// DefaultConfig enables both backends with exhaustive search.
func DefaultConfig() Config {
	return Config{Primary: true, Secondary: true, TryHarder: true}
}

// Status describes one backend as seen by Probe.
type Status struct {
	Name      string `json:"name" yaml:"name"`
	Role      string `json:"role" yaml:"role"`
	Available bool   `json:"available" yaml:"available"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Availability is the immutable result of the startup probe.
type Availability struct {
	backends []Backend
	statuses []Status
}

var (
	newPrimary   = NewGozxing
	newSecondary = NewQR
)

// Probe constructs every enabled backend once and smoke-tests it on a blank
// image. Backends that fail are reported as unavailable with a reason.
func Probe(cfg Config) Availability {
	opts := Options{TryHarder: cfg.TryHarder}
	var a Availability
	a.add(RolePrimary, NameGozxing, cfg.Primary, func() (Backend, error) { return newPrimary(opts) })
	a.add(RoleSecondary, NameQR, cfg.Secondary, func() (Backend, error) { return newSecondary(opts) })
	return a
}

func (a *Availability) add(role, name string, enabled bool, build func() (Backend, error)) {
	st := Status{Name: name, Role: role}
	switch {
	case !enabled:
		st.Reason = "disabled by configuration"
	default:
		b, err := build()
		if err == nil {
			_, err = safeDecode(context.Background(), b, blankImage())
		}
		if err != nil {
			st.Reason = err.Error()
			slog.Warn("barcode backend unavailable", "backend", name, "role", role, "error", err)
			break
		}
		st.Available = true
		a.backends = append(a.backends, b)
		slog.Debug("barcode backend available", "backend", name, "role", role)
	}
	a.statuses = append(a.statuses, st)
}

// NewAvailability builds an Availability from already constructed backends,
// in priority order. It is used by hosts that bring their own decoders.
func NewAvailability(backends ...Backend) Availability {
	var a Availability
	for i, b := range backends {
		role := RoleSecondary
		if i == 0 {
			role = RolePrimary
		}
		a.backends = append(a.backends, b)
		a.statuses = append(a.statuses, Status{Name: b.Name(), Role: role, Available: true})
	}
	return a
}

// Backends returns the available backends in priority order.
func (a Availability) Backends() []Backend {
	return append([]Backend(nil), a.backends...)
}

// Statuses returns one entry per probed backend.
func (a Availability) Statuses() []Status {
	return append([]Status(nil), a.statuses...)
}

// Any reports whether at least one backend is available.
func (a Availability) Any() bool { return len(a.backends) > 0 }

// Chain returns a composite decoder over the available backends.
func (a Availability) Chain() *Chain { return NewChain(a.backends...) }

func blankImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}
