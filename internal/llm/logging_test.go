package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/lecsum/internal/store"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordedEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestWithLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"is_correct":true,"feedback":"ok"}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 4},
	})
	rec := &recordedEvents{}
	p := WithLogging(mock, rec, zap.NewNop())

	ctx := WithPurpose(context.Background(), "grade-batch")
	_, err := p.Generate(ctx, Request{System: "grader", Messages: UserMessage("q1"), Schema: gradeSchema()})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, "grade-batch", ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.InputTokens)
	assert.Contains(t, ev.RequestBody, "[system]\ngrader")
	assert.Contains(t, ev.RequestBody, "[schema: test-grade]")
	assert.JSONEq(t, `{"is_correct":true,"feedback":"ok"}`, ev.ResponseBody)
}

func TestWithLogging_RecordsFailureAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("boom")}})
	rec := &recordedEvents{err: errors.New("disk full")}
	p := WithLogging(mock, rec, zap.New(core))

	_, err := p.Generate(WithPurpose(context.Background(), "quiz-refine"), Request{})
	require.Error(t, err, "provider error must be returned unchanged")

	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].Success)
	assert.Contains(t, rec.events[0].ErrorMessage, "boom")

	assert.Equal(t, 1, logs.FilterMessage("generation failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to record LLM request event").Len())
}

func TestWithLogging_NilRecorder(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"x"`)})
	p := WithLogging(mock, nil, nil)
	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
}
