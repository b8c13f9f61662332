package support

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterResponseSteps registers assertions on the last response.
func (testCtx *TestContext) RegisterResponseSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
	sc.Step(`^the response field "([^"]*)" should be (true|false)$`, testCtx.theResponseFieldShouldBeBool)
	sc.Step(`^the response field "([^"]*)" should be (\d+)$`, testCtx.theResponseFieldShouldBeNumber)
	sc.Step(`^the response field "([^"]*)" should start with "([^"]*)"$`, testCtx.theResponseFieldShouldStartWith)
	sc.Step(`^the response field "([^"]*)" should have (\d+) entries$`, testCtx.theResponseFieldShouldHaveEntries)
	sc.Step(`^the response field "([^"]*)" should be absent$`, testCtx.theResponseFieldShouldBeAbsent)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastStatusCode != status {
		return fmt.Errorf("expected status %d, got %d (body: %s)", status, testCtx.LastStatusCode, truncate(testCtx.LastBody))
	}
	return nil
}

// field resolves a dotted path such as "summary.found" or "results.0.data".
func (testCtx *TestContext) field(path string) (any, bool, error) {
	body, err := testCtx.responseJSON()
	if err != nil {
		return nil, false, err
	}

	var cur any = body
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, false, nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false, nil
			}
			cur = node[i]
		default:
			return nil, false, nil
		}
	}
	return cur, true, nil
}

func (testCtx *TestContext) mustField(path string) (any, error) {
	v, ok, err := testCtx.field(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("field %q missing in %s", path, truncate(testCtx.LastBody))
	}
	return v, nil
}

func (testCtx *TestContext) theResponseFieldShouldBe(path, want string) error {
	v, err := testCtx.mustField(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q: expected %q, got %q", path, want, got)
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldBeBool(path, want string) error {
	v, err := testCtx.mustField(path)
	if err != nil {
		return err
	}
	b, ok := v.(bool)
	if !ok || strconv.FormatBool(b) != want {
		return fmt.Errorf("field %q: expected %s, got %v", path, want, v)
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldBeNumber(path string, want int) error {
	v, err := testCtx.mustField(path)
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || int(n) != want {
		return fmt.Errorf("field %q: expected %d, got %v", path, want, v)
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldStartWith(path, prefix string) error {
	v, err := testCtx.mustField(path)
	if err != nil {
		return err
	}
	if s := fmt.Sprint(v); !strings.HasPrefix(s, prefix) {
		return fmt.Errorf("field %q: expected prefix %q, got %q", path, prefix, s)
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldHaveEntries(path string, n int) error {
	v, err := testCtx.mustField(path)
	if err != nil {
		return err
	}
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field %q is not a list: %v", path, v)
	}
	if len(list) != n {
		return fmt.Errorf("field %q: expected %d entries, got %d", path, n, len(list))
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldBeAbsent(path string) error {
	_, ok, err := testCtx.field(path)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("field %q unexpectedly present in %s", path, truncate(testCtx.LastBody))
	}
	return nil
}
