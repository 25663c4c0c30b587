// Package httpx is the shared JSON-over-HTTP client of the outbound adapters.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type Client struct {
	httpClient *http.Client
	retries    int
	userAgent  string
}

func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		userAgent:  "dlmm-liquidity-agent/1.0",
	}
}

// Do sends the request, retrying transport errors, 429 and 5xx, and returns the raw body.
// When out is non-nil the body is decoded into it.
func (c *Client) Do(ctx context.Context, req *http.Request, out any) ([]byte, error) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		cloneReq := req.Clone(ctx)
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("clone request body: %w", err)
			}
			cloneReq.Body = body
		}

		resp, err := c.httpClient.Do(cloneReq)
		if err != nil {
			lastErr = err
			continue
		}

		buf, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(buf), 256)}
			if statusErr.Retryable() {
				lastErr = statusErr
				continue
			}
			return buf, statusErr
		}

		if out != nil {
			if len(bytes.TrimSpace(buf)) == 0 {
				return buf, fmt.Errorf("empty response body")
			}
			if err := sonic.Unmarshal(buf, out); err != nil {
				return buf, fmt.Errorf("decode response: %w", err)
			}
		}
		return buf, nil
	}
	return nil, lastErr
}

// PostJSON encodes body with sonic and posts it.
func (c *Client) PostJSON(ctx context.Context, url string, body any, headers map[string]string, out any) ([]byte, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req, out)
}

func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req, out)
}

func backoff(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * 200 * time.Millisecond
	jitter := time.Duration(rand.Intn(100)) * time.Millisecond
	return base + jitter
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
