package support

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/codescan/internal/lambda"
)

// RegisterLambdaSteps registers steps that call the invocation handler
// directly, as the Lambda runtime would.
func (testCtx *TestContext) RegisterLambdaSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I invoke the handler with a base64 encoded proxy event$`, testCtx.iInvokeWithProxyEvent)
	sc.Step(`^I invoke the handler with a JSON body field "([^"]*)"$`, testCtx.iInvokeWithJSONBody)
	sc.Step(`^I invoke the handler with a double wrapped body$`, testCtx.iInvokeWithDoubleWrappedBody)
	sc.Step(`^I invoke the handler with a top level field "([^"]*)"$`, testCtx.iInvokeWithTopLevelField)
	sc.Step(`^I invoke the handler with an empty event$`, testCtx.iInvokeWithEmptyEvent)
	sc.Step(`^the response content type should be JSON$`, testCtx.theResponseContentTypeShouldBeJSON)
}

func (testCtx *TestContext) invoke(event map[string]any) error {
	p, err := testCtx.pipeline()
	if err != nil {
		return err
	}
	resp, err := lambda.NewHandler(p).Handle(context.Background(), event)
	if err != nil {
		return fmt.Errorf("handler returned error: %w", err)
	}
	testCtx.LastLambda = &resp
	testCtx.LastStatusCode = resp.StatusCode
	testCtx.LastBody = []byte(resp.Body)
	testCtx.LastHeaders = nil
	return nil
}

func (testCtx *TestContext) iInvokeWithProxyEvent() error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	return testCtx.invoke(map[string]any{"isBase64Encoded": true, "body": b64})
}

func (testCtx *TestContext) iInvokeWithJSONBody(field string) error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{field: b64})
	if err != nil {
		return err
	}
	return testCtx.invoke(map[string]any{"body": string(body)})
}

func (testCtx *TestContext) iInvokeWithDoubleWrappedBody() error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	inner, err := json.Marshal(map[string]string{"image": b64})
	if err != nil {
		return err
	}
	outer, err := json.Marshal(map[string]string{"body": string(inner)})
	if err != nil {
		return err
	}
	return testCtx.invoke(map[string]any{"body": string(outer)})
}

func (testCtx *TestContext) iInvokeWithTopLevelField(field string) error {
	b64, err := testCtx.base64Image()
	if err != nil {
		return err
	}
	return testCtx.invoke(map[string]any{field: b64})
}

func (testCtx *TestContext) iInvokeWithEmptyEvent() error {
	return testCtx.invoke(map[string]any{})
}

func (testCtx *TestContext) theResponseContentTypeShouldBeJSON() error {
	if testCtx.LastLambda == nil {
		return fmt.Errorf("no handler response recorded")
	}
	if ct := testCtx.LastLambda.Headers["Content-Type"]; ct != "application/json" {
		return fmt.Errorf("expected application/json, got %q", ct)
	}
	return nil
}
