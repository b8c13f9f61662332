package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

// stubBackend reports the same matches for every image.
type stubBackend struct {
	matches []barcode.Match
}

func (b stubBackend) Name() string { return "stub" }

func (b stubBackend) Decode(context.Context, image.Image) ([]barcode.Match, error) {
	return b.matches, nil
}

var helloMatch = []barcode.Match{{Type: "QRCODE", Data: "hello"}}

func newTestServer(t *testing.T, matches []barcode.Match, cfg Config) *Server {
	t.Helper()

	pl, err := pipeline.NewBuilder().
		WithAvailability(barcode.NewAvailability(stubBackend{matches: matches})).
		WithObserver(observeAttempt).
		Build()
	require.NoError(t, err)
	return NewServerWithPipeline(cfg, pl)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	return testutil.EncodePNG(t, testutil.Blank(32, 32, color.White))
}

func multipartRequest(t *testing.T, url, field, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
