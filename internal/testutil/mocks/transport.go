// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"
	"net/url"
	"sync"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
)

// RouteFunc answers a request captured by MockTransport
type RouteFunc func(req *ports.HTTPRequest) (*ports.HTTPResponse, error)

// MockTransport is a concurrency-safe ports.Transport that routes by URL path
// and captures every call.
type MockTransport struct {
	mu     sync.Mutex
	routes map[string]RouteFunc
	calls  []*ports.HTTPRequest
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{routes: make(map[string]RouteFunc)}
}

// Handle registers a responder for a path such as /oauth/v1/generate
func (m *MockTransport) Handle(path string, fn RouteFunc) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[path] = fn
	return m
}

// Respond registers a fixed status and body for a path
func (m *MockTransport) Respond(path string, status int, body []byte) *MockTransport {
	return m.Handle(path, func(*ports.HTTPRequest) (*ports.HTTPResponse, error) {
		return &ports.HTTPResponse{StatusCode: status, Body: body}, nil
	})
}

// Fail registers a transport failure for a path
func (m *MockTransport) Fail(path string, err error) *MockTransport {
	return m.Handle(path, func(*ports.HTTPRequest) (*ports.HTTPResponse, error) {
		return nil, err
	})
}

// Do executes the route for the request path and captures the call
func (m *MockTransport) Do(ctx context.Context, req *ports.HTTPRequest) (*ports.HTTPResponse, error) {
	path := req.URL
	if u, err := url.Parse(req.URL); err == nil {
		path = u.Path
	}

	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn, ok := m.routes[path]
	m.mu.Unlock()

	if !ok {
		return &ports.HTTPResponse{StatusCode: 404, Body: []byte(`{"errorCode":"404.001.01","errorMessage":"Resource not found"}`)}, nil
	}
	return fn(req)
}

// Calls returns the captured requests for a path
func (m *MockTransport) Calls(path string) []*ports.HTTPRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*ports.HTTPRequest
	for _, c := range m.calls {
		p := c.URL
		if u, err := url.Parse(c.URL); err == nil {
			p = u.Path
		}
		if p == path {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns the number of captured requests for a path
func (m *MockTransport) CallCount(path string) int {
	return len(m.Calls(path))
}
