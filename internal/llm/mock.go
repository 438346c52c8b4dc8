package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
// Structured replies are validated against the request schema the same way
// real providers do.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("mock: no canned response left")}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	return mockReply(req, resp)
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockHandler answers one request routed by purpose.
type MockHandler func(ctx context.Context, req Request) MockResponse

// RoutedMock dispatches by the purpose label on the context, so tests can
// drive pipelines that issue calls concurrently in no fixed order.
type RoutedMock struct {
	mu     sync.Mutex
	routes map[string]MockHandler
	calls  map[string]int
}

// NewRoutedMock creates a RoutedMock with the given purpose handlers.
func NewRoutedMock(routes map[string]MockHandler) *RoutedMock {
	return &RoutedMock{routes: routes, calls: make(map[string]int)}
}

func (m *RoutedMock) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)

	m.mu.Lock()
	h, ok := m.routes[purpose]
	m.calls[purpose]++
	m.mu.Unlock()

	if !ok {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("mock: no route for purpose %q", purpose)}
	}
	return mockReply(req, h(ctx, req))
}

// ModelID returns "mock".
func (m *RoutedMock) ModelID() string {
	return "mock"
}

// Calls returns how many requests were made for purpose.
func (m *RoutedMock) Calls(purpose string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[purpose]
}

func mockReply(req Request, resp MockResponse) (*Response, error) {
	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := checkStructured(req.Schema, resp.Content, "end"); err != nil {
		return nil, err
	}
	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}
