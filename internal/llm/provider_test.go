package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: UserMessage("first")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: UserMessage("second")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
	if mock.CallCount() != 2 || mock.Calls[1].Messages[0].Content != "second" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"feedback":"no verdict"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: gradeSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestRoutedMock_DispatchesByPurpose(t *testing.T) {
	mock := NewRoutedMock(map[string]MockHandler{
		"a": func(context.Context, Request) MockResponse {
			return MockResponse{Content: json.RawMessage(`"from a"`)}
		},
		"b": func(context.Context, Request) MockResponse {
			return MockResponse{Content: json.RawMessage(`"from b"`)}
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		purpose := "a"
		if i%2 == 1 {
			purpose = "b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := mock.Generate(WithPurpose(context.Background(), purpose), Request{})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if want := `"from ` + purpose + `"`; string(resp.Content) != want {
				t.Errorf("purpose %s got %s", purpose, resp.Content)
			}
		}()
	}
	wg.Wait()

	if mock.Calls("a") != 10 || mock.Calls("b") != 10 {
		t.Fatalf("calls a=%d b=%d", mock.Calls("a"), mock.Calls("b"))
	}

	_, err := mock.Generate(WithPurpose(context.Background(), "c"), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable for unrouted purpose, got %T", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "quiz-draft")
	if p := PurposeFrom(ctx); p != "quiz-draft" {
		t.Fatalf("expected 'quiz-draft', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
		{
			"rate limit without burst",
			Config{Provider: "mock", RateLimit: RateLimitConfig{RequestsPerSecond: 2}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverProvider(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DiscoverProvider(); got != "anthropic" {
		t.Fatalf("DiscoverProvider() = %q, want the configured default", got)
	}

	cfg.OpenAI.APIKey = "sk-o"
	cfg.Anthropic.APIKey = "sk-a"
	if got := cfg.DiscoverProvider(); got != "openai" {
		t.Fatalf("DiscoverProvider() = %q, want openai", got)
	}

	cfg.Gemini.APIKey = "g"
	if got := cfg.DiscoverProvider(); got != "gemini" {
		t.Fatalf("DiscoverProvider() = %q, want gemini", got)
	}
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
