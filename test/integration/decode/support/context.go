package support

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/server"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Input state
	Image       image.Image
	ImageFormat string

	// Decode targets
	Pipeline   *pipeline.Pipeline
	HTTPServer *httptest.Server

	// Last response, from HTTP or the Lambda handler
	LastStatusCode int
	LastBody       []byte
	LastHeaders    http.Header
	LastLambda     *events.APIGatewayProxyResponse
}

// NewTestContext creates an empty scenario context.
func NewTestContext() *TestContext {
	return &TestContext{ImageFormat: "png"}
}

// Cleanup stops the HTTP server if one was started.
func (testCtx *TestContext) Cleanup() {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
}

func (testCtx *TestContext) pipeline() (*pipeline.Pipeline, error) {
	if testCtx.Pipeline != nil {
		return testCtx.Pipeline, nil
	}
	p, err := pipeline.NewBuilder().Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	testCtx.Pipeline = p
	return p, nil
}

func (testCtx *TestContext) startServer(cfg server.Config) error {
	if testCtx.HTTPServer != nil {
		return nil
	}
	p, err := testCtx.pipeline()
	if err != nil {
		return err
	}
	srv := server.NewServerWithPipeline(cfg, p)
	testCtx.HTTPServer = httptest.NewServer(srv.Handler())
	return nil
}

// encodedImage returns the current image in its configured file format.
func (testCtx *TestContext) encodedImage() ([]byte, error) {
	if testCtx.Image == nil {
		return nil, fmt.Errorf("no image prepared")
	}
	var buf bytes.Buffer
	var err error
	switch testCtx.ImageFormat {
	case "jpeg":
		err = jpeg.Encode(&buf, testCtx.Image, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(&buf, testCtx.Image)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (testCtx *TestContext) base64Image() (string, error) {
	data, err := testCtx.encodedImage()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// responseJSON decodes the last response body into a generic map.
func (testCtx *TestContext) responseJSON() (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(testCtx.LastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w (body: %s)", err, truncate(testCtx.LastBody))
	}
	return body, nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
