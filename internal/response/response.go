// Package response builds the JSON envelopes returned to callers.
package response

import (
	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/search"
)

// NoMatchMessage is reported when every attempt came back empty.
const NoMatchMessage = "No QR/barcode detected with tried preprocessing steps"

// Error reasons.
const (
	ReasonNoImage     = "no base64 image found in request"
	ReasonDecodeImage = "failed to decode image"
	ReasonNoData      = "no data provided"
)

// Envelope is the success or no-match body.
type Envelope struct {
	Found     bool            `json:"found" yaml:"found"`
	Transform string          `json:"transform,omitempty" yaml:"transform,omitempty"`
	Results   []barcode.Match `json:"results,omitempty" yaml:"results,omitempty"`
	// Data is the single decoded text, or the ordered list of texts when
	// several symbols were found.
	Data    any    `json:"data,omitempty" yaml:"data,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// ErrorBody is the body of a rejected request.
type ErrorBody struct {
	Error   string `json:"error" yaml:"error"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// FromOutcome builds the envelope for a finished search.
func FromOutcome(out search.Outcome) Envelope {
	if !out.Found || len(out.Matches) == 0 {
		return NoMatch()
	}
	return Match(out.Attempt.Label(), out.Matches)
}

// NoMatch is the envelope for a search that found nothing.
func NoMatch() Envelope {
	return Envelope{Found: false, Message: NoMatchMessage}
}

// Match is the envelope for a successful decode.
func Match(label string, matches []barcode.Match) Envelope {
	results := append([]barcode.Match(nil), matches...)
	env := Envelope{Found: true, Transform: label, Results: results}
	if len(results) == 1 {
		env.Data = results[0].Data
	} else {
		texts := make([]string, len(results))
		for i, m := range results {
			texts[i] = m.Data
		}
		env.Data = texts
	}
	return env
}

// Err builds an error body; details may be empty.
func Err(reason, details string) ErrorBody {
	return ErrorBody{Error: reason, Details: details}
}
