// Package testutil provides testing utilities for the community API
// client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock API endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the community platform backend.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount    int
	LastMethod      string
	LastRequestPath string
	LastHeader      http.Header
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastMethod = r.Method
		mock.LastRequestPath = r.URL.Path
		mock.LastHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastMethod = ""
	m.LastRequestPath = ""
	m.LastHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if resp.Headers["Content-Type"] == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests served.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastMethod returns the method of the most recent request.
func (m *MockAPI) GetLastMethod() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastMethod
}

// defaultHandler answers 200 with an empty JSON object.
func (m *MockAPI) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{}`))
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
	}
}

// NewUnauthorizedResponse creates a 401 response as the backend emits
// it for an expired or blacklisted token.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"error": "Token has expired"}`,
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewSlowResponse creates a 200 response delayed past a deadline.
func NewSlowResponse(data string, delay time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Delay:      delay,
	}
}

// NewMalformedResponse creates a 200 response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "<html>not json</html>",
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}
