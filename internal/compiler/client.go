package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultTimeout bounds each remote attempt
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 4 << 20

// Doer interface for testing
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// client holds what both endpoints share
type client struct {
	endpoint string
	timeout  time.Duration
	doer     Doer
}

func newClient(endpoint string, timeout time.Duration, doer Doer) client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if doer == nil {
		doer = &http.Client{}
	}

	return client{
		endpoint: endpoint,
		timeout:  timeout,
		doer:     doer,
	}
}

// do sends one request bounded by the client timeout. Expiry cancels the
// in-flight request and surfaces as a NetworkError.
func (c *client) do(ctx context.Context, method, url string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return &NetworkError{Endpoint: c.endpoint, Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProtocolError{Endpoint: c.endpoint, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return &NetworkError{Endpoint: c.endpoint, Err: err}
	}

	if len(data) > maxResponseBytes {
		return &ProtocolError{Endpoint: c.endpoint, Reason: fmt.Sprintf("response too large (over %d bytes)", maxResponseBytes)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ProtocolError{Endpoint: c.endpoint, Reason: fmt.Sprintf("malformed response: %v", err)}
	}

	return nil
}
