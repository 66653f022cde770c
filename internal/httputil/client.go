// Package httputil provides the HTTP client abstraction used for remote
// model services and the JSON response helpers shared by API handlers.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a single remote model call.
const DefaultTimeout = 5 * time.Second

// MaxResponseBytes caps how much of a response body is decoded.
const MaxResponseBytes = 1 << 20

// ErrStatus is wrapped by PostJSON for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// HTTPClient abstracts HTTP operations for testability.
// Use NewStandardClient in production and MockHTTPClient in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardClient wraps *http.Client to implement HTTPClient.
type StandardClient struct {
	*http.Client
}

// NewStandardClient wraps c. A nil c gets a client with DefaultTimeout.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = &http.Client{Timeout: DefaultTimeout}
	}
	return &StandardClient{Client: c}
}

// Do sends an HTTP request.
func (c *StandardClient) Do(req *http.Request) (*http.Response, error) {
	return c.Client.Do(req)
}

// PostJSON encodes in, POSTs it to url and decodes a 2xx JSON body into
// out. Non-2xx responses return an error wrapping ErrStatus.
func PostJSON(ctx context.Context, c HTTPClient, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBytes))
		return fmt.Errorf("post %s: %w: %d", url, ErrStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// MockHTTPClient returns queued responses and records every request.
type MockHTTPClient struct {
	mu          sync.Mutex
	DoFunc      func(req *http.Request) (*http.Response, error)
	Requests    []*http.Request
	Bodies      [][]byte
	Responses   []*MockResponse
	responseIdx int
}

// MockResponse defines a canned HTTP response for testing.
type MockResponse struct {
	StatusCode int
	Body       string
	Error      error
}

// NewMockHTTPClient creates a new mock HTTP client.
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

// AddResponse queues a response to be returned by subsequent requests.
func (m *MockHTTPClient) AddResponse(statusCode int, body string) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, &MockResponse{StatusCode: statusCode, Body: body})
	return m
}

// AddErrorResponse queues a transport error.
func (m *MockHTTPClient) AddErrorResponse(err error) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, &MockResponse{Error: err})
	return m
}

// Do records the request and its body, then returns the next queued
// response. Once the queue is drained it answers 200 with an empty body.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	m.Bodies = append(m.Bodies, body)

	if m.DoFunc != nil {
		return m.DoFunc(req)
	}

	resp := &MockResponse{StatusCode: http.StatusOK}
	if m.responseIdx < len(m.Responses) {
		resp = m.Responses[m.responseIdx]
		m.responseIdx++
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &http.Response{
		StatusCode: resp.StatusCode,
		Body:       io.NopCloser(bytes.NewBufferString(resp.Body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// RequestCount returns the number of recorded requests.
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Body returns the body of the nth recorded request, or nil.
func (m *MockHTTPClient) Body(n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.Bodies) {
		return nil
	}
	return m.Bodies[n]
}
