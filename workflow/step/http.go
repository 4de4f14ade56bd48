package step

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
)

// HTTPExecutor issues one HTTP request per step. Non-2xx responses are
// step failures unless the step sets allowFailure.
type HTTPExecutor struct {
	client *http.Client
}

// Kind returns "http".
func (e *HTTPExecutor) Kind() string { return "http" }

// Execute issues the request and captures status, headers, and body.
func (e *HTTPExecutor) Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error) {
	env := run.Outputs()

	url := workflow.Interpolate(step.Config["url"], env)
	if url == "" {
		return nil, fmt.Errorf("http step requires a url")
	}

	method := strings.ToUpper(step.Config["method"])
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if raw := workflow.Interpolate(step.Config["body"], env); raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}

	if raw := step.Config["headers"]; raw != "" {
		headers := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			return nil, fmt.Errorf("invalid headers JSON: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, workflow.Interpolate(v, env))
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	tolerated := step.Config["allowFailure"] == "true"
	if (resp.StatusCode < 200 || resp.StatusCode >= 300) && !tolerated {
		return nil, &NetworkError{URL: url, Status: resp.StatusCode}
	}

	return map[string]any{
		"status":  resp.StatusCode,
		"headers": respHeaders,
		"body":    string(respBody),
	}, nil
}
