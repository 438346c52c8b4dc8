package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gradeOut struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

func TestGenerateStructured_Decodes(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"is_correct":true,"feedback":"Yes."}`)})
	ctx := WithPurpose(context.Background(), "grade-batch")

	out, err := GenerateStructured[gradeOut](ctx, mock, Request{Messages: UserMessage("x"), Schema: gradeSchema()})
	require.NoError(t, err)
	assert.True(t, out.IsCorrect)
	assert.Equal(t, "Yes.", out.Feedback)
}

func TestGenerateStructured_RequiresSchema(t *testing.T) {
	mock := NewMockProvider()
	_, err := GenerateStructured[gradeOut](context.Background(), mock, Request{})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 0, mock.CallCount())
}

func TestGenerateStructured_WrapsProviderError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	ctx := WithPurpose(context.Background(), "quiz-draft")

	_, err := GenerateStructured[gradeOut](ctx, mock, Request{Schema: gradeSchema()})

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "quiz-draft", genErr.Purpose)
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
	assert.Contains(t, err.Error(), `"quiz-draft"`)
}

func TestGenerateStructured_SchemaViolationIsInvalidResponse(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"is_correct":1,"feedback":"x"}`)})

	_, err := GenerateStructured[gradeOut](context.Background(), mock, Request{Schema: gradeSchema()})

	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)
}

func TestGenerateStructured_UndecodablePayload(t *testing.T) {
	schema := &Schema{Name: "test-any", Definition: map[string]any{"type": "array"}}
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`[1,2]`)})

	_, err := GenerateStructured[gradeOut](context.Background(), mock, Request{Schema: schema})

	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)
	assert.JSONEq(t, `[1,2]`, string(inv.Content))
}

func TestGenerateText(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage("plain words")})

	got, err := GenerateText(context.Background(), mock, Request{Messages: UserMessage("x"), Schema: gradeSchema()})
	require.NoError(t, err)
	assert.Equal(t, "plain words", got)
	assert.Nil(t, mock.Calls[0].Schema, "text generation must not send a schema")
}
