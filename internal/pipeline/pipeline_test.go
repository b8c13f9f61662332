package pipeline

import (
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/payload"
	"github.com/MeKo-Tech/codescan/internal/response"
	"github.com/MeKo-Tech/codescan/internal/search"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

type countingBackend struct {
	calls int
}

func (c *countingBackend) Name() string { return "counting" }

func (c *countingBackend) Decode(context.Context, image.Image) ([]barcode.Match, error) {
	c.calls++
	return nil, nil
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewBuilder().Build()
	require.NoError(t, err)
	return p
}

func TestBuilder_Validate(t *testing.T) {
	err := NewBuilder().WithBackends(false, false).Validate()
	require.Error(t, err)

	b := NewBuilder().WithMaxPixels(1234).WithTryHarder(false)
	require.NoError(t, b.Validate())
	assert.Equal(t, int64(1234), b.Config().MaxPixels)
	assert.False(t, b.Config().Backends.TryHarder)

	// an explicit availability does not need enabled backends
	require.NoError(t, NewBuilder().WithBackends(false, false).WithAvailability(barcode.NewAvailability()).Validate())
}

func TestHandle_RequestShapes(t *testing.T) {
	p := newPipeline(t)
	b64 := testutil.Base64PNG(t, testutil.QRCode(t, "shape test", testutil.DefaultQRSize))

	events := map[string]any{
		"proxy":          testutil.ProxyEvent(b64),
		"json body":      testutil.JSONBodyEvent(t, "image", b64),
		"alternate key":  testutil.JSONBodyEvent(t, "img", b64),
		"double wrapped": testutil.DoubleWrappedEvent(t, b64),
		"flat":           testutil.FlatEvent(b64),
		"data uri":       testutil.FlatEvent("data:image/png;base64," + b64),
	}

	for name, event := range events {
		t.Run(name, func(t *testing.T) {
			res := p.Handle(context.Background(), event)
			require.NoError(t, res.Err)
			assert.Equal(t, http.StatusOK, res.StatusCode)

			env, ok := res.Envelope()
			require.True(t, ok)
			assert.True(t, env.Found)
			assert.Equal(t, "orig_rot0", env.Transform)
			require.Len(t, env.Results, 1)
			assert.Equal(t, "shape test", env.Data)
		})
	}
}

func TestHandle_JPEGInput(t *testing.T) {
	p := newPipeline(t)
	jpg := testutil.EncodeJPEG(t, testutil.QRCode(t, "jpeg", testutil.DefaultQRSize))

	res := p.Handle(context.Background(), testutil.FlatEvent(base64.StdEncoding.EncodeToString(jpg)))
	require.Equal(t, http.StatusOK, res.StatusCode)
	env, _ := res.Envelope()
	assert.True(t, env.Found)
	assert.Equal(t, "jpeg", res.Image.Format)
}

func TestHandle_NoMatch(t *testing.T) {
	p := newPipeline(t)
	b64 := testutil.Base64PNG(t, testutil.Blank(48, 48, color.White))

	res := p.Handle(context.Background(), testutil.FlatEvent(b64))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 36, res.Outcome.Attempts)

	body, err := res.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false,"message":"`+response.NoMatchMessage+`"}`, string(body))
}

func TestHandle_Errors(t *testing.T) {
	backend := &countingBackend{}
	p, err := NewBuilder().WithAvailability(barcode.NewAvailability(backend)).Build()
	require.NoError(t, err)

	tests := []struct {
		name    string
		event   any
		reason  string
		details bool
	}{
		{"not an object", "abc", response.ReasonNoImage, false},
		{"no image key", map[string]any{"foo": "bar"}, response.ReasonNoImage, false},
		{"invalid base64", testutil.FlatEvent("!!!not base64!!!"), response.ReasonDecodeImage, true},
		{"not an image", testutil.FlatEvent(base64.StdEncoding.EncodeToString([]byte("plain text"))), response.ReasonDecodeImage, true},
		{"non-string image", map[string]any{"image": 12.0}, response.ReasonDecodeImage, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Handle(context.Background(), tt.event)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			require.Error(t, res.Err)
			body, ok := res.Body.(response.ErrorBody)
			require.True(t, ok)
			assert.Equal(t, tt.reason, body.Error)
			assert.Equal(t, tt.details, body.Details != "")
		})
	}
	assert.Equal(t, 0, backend.calls, "rejected requests never reach the search")
}

func TestHandle_NoImageErrorBody(t *testing.T) {
	p := newPipeline(t)
	res := p.Handle(context.Background(), map[string]any{})
	assert.ErrorIs(t, res.Err, payload.ErrNoImage)
	body, err := res.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"no base64 image found in request"}`, string(body))
}

func TestHandle_Cancelled(t *testing.T) {
	p, err := NewBuilder().WithAvailability(barcode.NewAvailability(&countingBackend{})).Build()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Handle(ctx, testutil.FlatEvent(testutil.Base64PNG(t, testutil.Blank(8, 8, color.White))))
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestBuilder_ObserversAndFailureHook(t *testing.T) {
	var attempts int
	var failures []string
	failing := barcode.NewAvailability(&panickingBackend{})
	p, err := NewBuilder().
		WithAvailability(failing).
		WithObserver(func(search.Event) { attempts++ }).
		WithBackendFailureHook(func(name string, _ error) { failures = append(failures, name) }).
		Build()
	require.NoError(t, err)

	env, out := p.ProcessImage(context.Background(), testutil.Blank(8, 8, color.White))
	assert.False(t, env.Found)
	assert.Equal(t, 36, out.Attempts)
	assert.Equal(t, 36, attempts)
	assert.Len(t, failures, 36)
	assert.Equal(t, "panicking", failures[0])
}

type panickingBackend struct{}

func (panickingBackend) Name() string { return "panicking" }

func (panickingBackend) Decode(context.Context, image.Image) ([]barcode.Match, error) {
	panic("decoder bug")
}

func TestEventFromBody(t *testing.T) {
	ev, ok := EventFromBody([]byte(`{"image":"abc"}`))
	require.True(t, ok)
	assert.Equal(t, map[string]any{"body": `{"image":"abc"}`}, ev)

	ev, ok = EventFromBody([]byte("  QUJD\n"))
	require.True(t, ok)
	assert.Equal(t, map[string]any{"isBase64Encoded": true, "body": "QUJD"}, ev)

	ev, ok = EventFromBody([]byte(`{}`))
	require.True(t, ok)
	assert.Equal(t, true, ev["isBase64Encoded"])

	_, ok = EventFromBody([]byte(" \n"))
	assert.False(t, ok)
}

func TestPipeline_Accessors(t *testing.T) {
	p := newPipeline(t)
	assert.Len(t, p.Transforms(), 9)
	assert.True(t, p.Availability().Any())
	assert.Equal(t, DefaultConfig().MaxPixels, p.Config().MaxPixels)
}

func TestBuild_PixelLimitIsPerPipeline(t *testing.T) {
	small, err := NewBuilder().
		WithAvailability(barcode.NewAvailability(&countingBackend{})).
		WithMaxPixels(100).
		Build()
	require.NoError(t, err)
	large, err := NewBuilder().
		WithAvailability(barcode.NewAvailability(&countingBackend{})).
		Build()
	require.NoError(t, err)

	png := testutil.EncodePNG(t, testutil.Blank(20, 20, color.White))
	event := testutil.FlatEvent(base64.StdEncoding.EncodeToString(png))

	res := small.Handle(context.Background(), event)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.ErrorIs(t, res.Err, codec.ErrTooLarge)
	_, err = small.DecodeImage(png)
	assert.ErrorIs(t, err, codec.ErrTooLarge)

	res = large.Handle(context.Background(), event)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_, err = large.DecodeImage(png)
	assert.NoError(t, err)

	assert.Equal(t, int64(codec.DefaultMaxPixels), codec.MaxPixels, "building never touches the package default")
}

func TestResult_LogAttrs(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want []any
	}{
		{
			name: "found",
			res: Result{StatusCode: http.StatusOK, Outcome: search.Outcome{
				Found: true, Attempt: search.Attempt{Transform: "gray", Angle: 90}, Attempts: 12,
			}},
			want: []any{"status", 200, "found", true, "transform", "gray_rot90", "attempts", 12},
		},
		{
			name: "no match",
			res:  Result{StatusCode: http.StatusOK, Outcome: search.Outcome{Attempts: 36}},
			want: []any{"status", 200, "found", false, "attempts", 36},
		},
		{
			name: "rejected",
			res:  Result{StatusCode: http.StatusBadRequest},
			want: []any{"status", 400, "found", false, "attempts", 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.LogAttrs())
		})
	}
}
