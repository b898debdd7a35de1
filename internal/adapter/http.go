package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
)

// HTTPClient defines an interface for HTTP operations to enable mocking.
// Get is the fetch path and retries transient failures; the Post variants
// are delivery paths and make exactly one attempt, reporting the
// transport status to the caller.
type HTTPClient interface {
	// Get performs a GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)

	// PostJSON marshals payload and POSTs it as application/json.
	// Returns the response status code and body.
	PostJSON(ctx context.Context, url string, payload any) (int, []byte, error)

	// PostForm POSTs form-encoded values.
	// Returns the response status code and body.
	PostForm(ctx context.Context, url string, form url.Values) (int, []byte, error)
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new real HTTP client with a bounded timeout
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request with exponential backoff retry for rate
// limiting (429) and network errors. Non-OK statuses are permanent.
func (c *RealHTTPClient) Get(ctx context.Context, requestURL string) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", requestURL))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("rate limited, retrying with backoff", zap.String("url", requestURL))
			return fmt.Errorf("rate limited (429), retrying")
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body)))
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 1 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return respBody, nil
}

// PostJSON marshals payload and POSTs it as application/json
func (c *RealHTTPClient) PostJSON(ctx context.Context, requestURL string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return c.post(ctx, requestURL, "application/json", bytes.NewReader(body))
}

// PostForm POSTs form-encoded values
func (c *RealHTTPClient) PostForm(ctx context.Context, requestURL string, form url.Values) (int, []byte, error) {
	return c.post(ctx, requestURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (c *RealHTTPClient) post(ctx context.Context, requestURL string, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", requestURL))
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
