package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
)

type HttpClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	// Path is the fully interpolated request path including any query string.
	Path string
	// TemplatePath is the path with placeholders left in, used as the
	// metrics label so per-id paths don't explode cardinality.
	TemplatePath string
	Headers      map[string]string
}

// SendRequest issues a JSON request against the client's base URL and decodes
// the response body into O. A 429 response surfaces as a "rate limit exceeded"
// error so callers can retry on it.
func SendRequest[I any, O any](
	ctx context.Context,
	client HttpClient,
	method string,
	opts *HttpClientOptions,
	input *I,
) (*O, error) {
	url := client.GetBaseURL() + opts.Path

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body for %s: %w", url, err)
		}
		body = bytes.NewReader(payload)
	}

	reqCtx, cancel := context.WithTimeout(ctx, client.GetDefaultRequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	timer := metrics.StartClientRequestDurationTimer(client.GetBaseURL(), method, opts.TemplatePath)

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		timer(0)
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	timer(resp.StatusCode)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded for %s", url)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var output O
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return &output, nil
}
