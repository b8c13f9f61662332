package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// MustJSON marshals v and fails the test on error.
func MustJSON(t *testing.T, v any) string {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// ProxyEvent is an API Gateway event whose body is raw base64.
func ProxyEvent(b64 string) map[string]any {
	return map[string]any{"isBase64Encoded": true, "body": b64}
}

// JSONBodyEvent is an API Gateway event whose body is a JSON document with an image key.
func JSONBodyEvent(t *testing.T, key, b64 string) map[string]any {
	t.Helper()

	return map[string]any{"body": MustJSON(t, map[string]any{key: b64})}
}

// DoubleWrappedEvent is a saved invoke event sent again as a request body.
func DoubleWrappedEvent(t *testing.T, b64 string) map[string]any {
	t.Helper()

	inner := MustJSON(t, map[string]any{"image": b64})
	return map[string]any{"body": MustJSON(t, map[string]any{"body": inner})}
}

// FlatEvent is a direct invocation payload.
func FlatEvent(b64 string) map[string]any {
	return map[string]any{"image": b64}
}
