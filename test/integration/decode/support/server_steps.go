package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/codescan/internal/server"
)

// RegisterServerSteps registers the HTTP server steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the decode server is running$`, testCtx.theDecodeServerIsRunning)
	sc.Step(`^the decode server is running with a limit of (\d+) requests? per minute$`, testCtx.theDecodeServerIsRunningWithLimit)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST the image as raw base64 to "([^"]*)"$`, testCtx.iPOSTRawBase64)
	sc.Step(`^I POST the image as a data URI to "([^"]*)"$`, testCtx.iPOSTDataURI)
	sc.Step(`^I POST the image in JSON field "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTJSONField)
	sc.Step(`^I POST the body "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTBody)
	sc.Step(`^I POST the JSON body '([^']*)' to "([^"]*)"$`, testCtx.iPOSTJSONBody)
	sc.Step(`^I upload the image to "([^"]*)"$`, testCtx.iUploadTheImage)
	sc.Step(`^I POST a batch of (\d+) copies of the image to "([^"]*)"$`, testCtx.iPOSTBatch)
	sc.Step(`^the response header "([^"]*)" should not be empty$`, testCtx.theResponseHeaderShouldNotBeEmpty)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, testCtx.theResponseBodyShouldContain)
}

func (testCtx *TestContext) theDecodeServerIsRunning() error {
	return testCtx.startServer(server.Config{TimeoutSec: 30})
}

func (testCtx *TestContext) theDecodeServerIsRunningWithLimit(perMinute int) error {
	return testCtx.startServer(server.Config{
		TimeoutSec: 30,
		RateLimit:  server.RateLimitConfig{Enabled: true, RequestsPerMinute: perMinute},
	})
}

func (testCtx *TestContext) do(req *http.Request) error {
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastStatusCode = resp.StatusCode
	testCtx.LastHeaders = resp.Header
	testCtx.LastBody = body
	testCtx.LastLambda = nil
	return nil
}

func (testCtx *TestContext) url(path string) (string, error) {
	if testCtx.HTTPServer == nil {
		return "", fmt.Errorf("decode server is not running")
	}
	return testCtx.HTTPServer.URL + path, nil
}

func (testCtx *TestContext) post(path, contentType string, body io.Reader) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iGET(path string) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTRawBase64(path string) error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	return testCtx.post(path, "text/plain", strings.NewReader(b64))
}

func (testCtx *TestContext) iPOSTDataURI(path string) error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	uri := fmt.Sprintf("data:image/%s;base64,%s", testCtx.ImageFormat, b64)
	return testCtx.post(path, "text/plain", strings.NewReader(uri))
}

func (testCtx *TestContext) iPOSTJSONField(field, path string) error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{field: b64})
	if err != nil {
		return err
	}
	return testCtx.post(path, "application/json", bytes.NewReader(body))
}

func (testCtx *TestContext) iPOSTBody(body, path string) error {
	return testCtx.post(path, "text/plain", strings.NewReader(body))
}

func (testCtx *TestContext) iPOSTJSONBody(body, path string) error {
	return testCtx.post(path, "application/json", strings.NewReader(body))
}

func (testCtx *TestContext) iUploadTheImage(path string) error {
	data, err := testCtx.encodedImage()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "upload."+testCtx.ImageFormat)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return testCtx.post(path, mw.FormDataContentType(), &buf)
}

func (testCtx *TestContext) iPOSTBatch(n int, path string) error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{"image": b64}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return testCtx.post(path, "application/json", bytes.NewReader(body))
}

func (testCtx *TestContext) theResponseHeaderShouldNotBeEmpty(name string) error {
	if testCtx.LastHeaders.Get(name) == "" {
		return fmt.Errorf("header %s is missing", name)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	if got := testCtx.LastHeaders.Get(name); got != want {
		return fmt.Errorf("header %s: expected %q, got %q", name, want, got)
	}
	return nil
}

func (testCtx *TestContext) theResponseBodyShouldContain(text string) error {
	if !strings.Contains(string(testCtx.LastBody), text) {
		return fmt.Errorf("response does not contain %q: %s", text, truncate(testCtx.LastBody))
	}
	return nil
}
