// Package remote reaches capabilities exposed as JSON-over-HTTP endpoints
// (for example function URLs). Any non-success status is reported as an
// error regardless of transport detail.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/planner/service/capability"
	"github.com/viant/planner/tracing"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

const maxBodySize = 10 << 20

// Client invokes one remote capability endpoint.
type Client struct {
	name       string
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	headers    map[string]string
	limiter    *rate.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithHeader adds a static request header, e.g. an authorization token.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithRateLimit caps calls per second with the given burst; a
// non-positive limit leaves calls unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a client for the named capability endpoint.
func New(name, endpoint string, options ...Option) *Client {
	ret := &Client{name: name, endpoint: endpoint, headers: map[string]string{}}
	for _, option := range options {
		option(ret)
	}
	if ret.timeout <= 0 {
		ret.timeout = DefaultTimeout
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{}
	}
	return ret
}

// Invoke posts payload as JSON and returns the decoded result.
func (c *Client) Invoke(ctx context.Context, payload capability.Payload) (capability.Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", c.name, err)
	}
	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", c.name, err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		request.Header.Set(k, v)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", c.endpoint, err)
	}
	defer response.Body.Close()
	if span, ok := tracing.SpanFromContext(ctx); ok {
		span.SetStatusFromHTTPCode(response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", response.StatusCode, errorMessage(body))
	}
	return decode(body)
}

// decode parses a response body, unwrapping {"statusCode":..,"body":..}
// envelopes produced by function runtimes.
func decode(body []byte) (capability.Result, error) {
	result := capability.Result{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid response body: %w", err)
	}
	if inner, ok := result["body"]; ok {
		if code, ok := result["statusCode"].(float64); ok && (code < 200 || code >= 300) {
			return nil, fmt.Errorf("status %d: %s", int(code), errorMessageOf(inner))
		}
		switch actual := inner.(type) {
		case string:
			unwrapped := capability.Result{}
			if err := json.Unmarshal([]byte(actual), &unwrapped); err != nil {
				return nil, fmt.Errorf("invalid response body: %w", err)
			}
			result = unwrapped
		case map[string]interface{}:
			result = actual
		}
	}
	if success, ok := result["success"].(bool); ok && !success {
		return nil, fmt.Errorf("%s", errorMessageOf(result))
	}
	return result, nil
}

func errorMessage(body []byte) string {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		return errorMessageOf(parsed)
	}
	return strings.TrimSpace(string(body))
}

func errorMessageOf(value interface{}) string {
	switch actual := value.(type) {
	case string:
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(actual), &parsed); err == nil {
			return errorMessageOf(parsed)
		}
		return actual
	case map[string]interface{}:
		if msg, ok := actual["error"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := actual["message"].(string); ok && msg != "" {
			return msg
		}
		data, _ := json.Marshal(actual)
		return string(data)
	}
	return fmt.Sprintf("%v", value)
}

var _ capability.Invoker = (*Client)(nil)
