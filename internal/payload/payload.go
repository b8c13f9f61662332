// Package payload locates the base64 image inside an inbound request.
//
// Requests arrive in several shapes: a proxy event whose body is the raw
// base64 text, a body holding a JSON document (possibly encoded more than
// once), or a bare JSON object. Extract normalizes all of them with a
// bounded, iterative unwrap.
package payload

import (
	"encoding/json"
	"errors"
	"log/slog"
)

// MaxUnwrap bounds the number of unwrap transitions Extract performs.
const MaxUnwrap = 5

// ImageKeys are the recognized image keys, in priority order.
var ImageKeys = []string{"image", "image_base64", "img", "b64"}

var (
	// ErrNoImage is returned when no image candidate exists in the payload.
	ErrNoImage = errors.New("no base64 image found in request")
	// ErrImageNotString is returned when a recognized key holds a non-string value.
	ErrImageNotString = errors.New("image must be a base64 string")
)

// Extract returns the base64 image string carried by payload. The payload is
// a value produced by encoding/json: maps, strings, slices, numbers, bools or nil.
func Extract(payload any) (string, error) {
	candidate, err := Locate(payload)
	if err != nil {
		return "", err
	}
	if !truthy(candidate) {
		return "", ErrNoImage
	}
	s, ok := candidate.(string)
	if !ok {
		return "", ErrImageNotString
	}
	return s, nil
}

// Locate returns the raw image candidate without checking its type or emptiness.
func Locate(payload any) (any, error) {
	top, ok := payload.(map[string]any)
	if !ok {
		return nil, ErrNoImage
	}

	if truthy(top["isBase64Encoded"]) {
		if body, ok := top["body"]; ok && !empty(body) {
			return body, nil
		}
	}

	if body, ok := top["body"]; ok && body != nil {
		if v := unwrap(body); truthy(v) {
			return v, nil
		}
	}
	if key, v, ok := imageKey(top); ok {
		slog.Debug("extracted base64 from top-level key", "key", key)
		return v, nil
	}
	return nil, ErrNoImage
}

// unwrap follows nested "body" fields and JSON-encoded strings for at most
// MaxUnwrap transitions and returns the first candidate it finds, or nil.
func unwrap(target any) any {
	unwraps := 0
	for unwraps < MaxUnwrap && target != nil {
		switch t := target.(type) {
		case map[string]any:
			if key, v, ok := imageKey(t); ok {
				slog.Debug("extracted base64 from object", "key", key, "unwraps", unwraps)
				return v
			}
			body, ok := t["body"]
			if !ok {
				return nil
			}
			target = body
			unwraps++
		case string:
			var parsed any
			if err := json.Unmarshal([]byte(t), &parsed); err != nil {
				slog.Debug("extracted raw base64 string", "unwraps", unwraps)
				return t
			}
			target = parsed
			unwraps++
		default:
			return nil
		}
	}

	if m, ok := target.(map[string]any); ok {
		if key, v, ok := imageKey(m); ok {
			slog.Debug("extracted base64 from object after max unwraps", "key", key)
			return v
		}
	}
	return nil
}

func imageKey(m map[string]any) (string, any, bool) {
	for _, k := range ImageKeys {
		if v, ok := m[k]; ok {
			return k, v, true
		}
	}
	return "", nil, false
}

// truthy follows JSON truthiness: false, 0, "", null, empty arrays and objects are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func empty(v any) bool { return !truthy(v) }
