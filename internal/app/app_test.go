package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/lecsum/internal/config"
	"github.com/abhisek/lecsum/internal/grading"
	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/quizgen"
	"github.com/abhisek/lecsum/internal/retryquiz"
	"github.com/abhisek/lecsum/internal/search"
	"github.com/abhisek/lecsum/internal/service"
)

var dbSeq atomic.Int64

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.DSN = fmt.Sprintf("file:app-test-%d?mode=memory&cache=shared", dbSeq.Add(1))
	cfg.QuizGen.ItemCount = 2
	return &cfg
}

func reply(t *testing.T, v any) llm.MockResponse {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return llm.MockResponse{Content: data}
}

func draftItems() map[string][]quiz.Item {
	return map[string][]quiz.Item{
		"quizzes": {
			{Type: quiz.TypeTrueFalse, Question: "A nil map can be read.", Options: []string{"O", "X"}, CorrectAnswer: "O", Explanation: "Reads return the zero value."},
			{Type: quiz.TypeShortAnswer, Question: "Which builtin appends to a slice?", Options: []string{}, CorrectAnswer: "append", Explanation: "append grows the slice."},
		},
	}
}

var docs = search.Static{{Title: "Go maps", URL: "https://go.dev/blog/maps", Snippet: "nil maps"}}

func TestApp_EndToEnd(t *testing.T) {
	mock := llm.NewRoutedMock(map[string]llm.MockHandler{
		quizgen.PurposeDraft: func(context.Context, llm.Request) llm.MockResponse {
			return reply(t, draftItems())
		},
		quizgen.PurposeCritique: func(context.Context, llm.Request) llm.MockResponse {
			return reply(t, map[string]any{"verdict": "no_changes", "fixes": []any{}})
		},
		grading.PurposeBatch: func(context.Context, llm.Request) llm.MockResponse {
			// The learner only gets the slice question right.
			return reply(t, map[string]any{"results": []quiz.GradeResult{
				{IsCorrect: false, Feedback: "no"},
				{IsCorrect: true, Feedback: "yes"},
			}})
		},
		grading.PurposeEnrich: func(context.Context, llm.Request) llm.MockResponse {
			return reply(t, map[string]any{
				"feedback":   "Reading a nil map yields the zero value, see https://go.dev/blog/maps.",
				"cited_urls": []string{"https://go.dev/blog/maps"},
			})
		},
		retryquiz.Purpose: func(_ context.Context, req llm.Request) llm.MockResponse {
			items := make([]quiz.Item, 3)
			for i := range items {
				items[i] = quiz.Item{Type: quiz.TypeTrueFalse, Question: fmt.Sprintf("Nil map fact %d.", i), Options: []string{"O", "X"}, CorrectAnswer: "O", Explanation: "Zero value."}
			}
			return reply(t, map[string]any{"quizzes": items})
		},
	})

	ctx := context.Background()
	a, err := New(ctx, testConfig(), Options{Log: zap.NewNop(), Provider: mock, Searcher: docs})
	require.NoError(t, err)
	defer a.Close(ctx)
	require.NoError(t, a.RequireLLM())

	doc, err := a.Service.AddDocument(ctx, service.AddDocumentRequest{Name: "maps.md", Content: "Maps in Go"})
	require.NoError(t, err)

	q, err := a.Service.GenerateQuiz(ctx, service.GenerateQuizRequest{DocumentID: doc.ID})
	require.NoError(t, err)
	assert.Equal(t, "no_changes", q.Verdict)
	require.Len(t, q.Set.Items, 2)
	assert.Equal(t, 0, mock.Calls(quizgen.PurposeRefine))

	g, err := a.Service.Grade(ctx, service.GradeRequest{
		QuizSetID:   q.Set.ID,
		QuestionIDs: q.Set.QuestionIDs(),
		Answers:     []string{"X", "append"},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, g.Score)
	assert.Equal(t, grading.OutcomeEnriched, g.Results[0].Outcome)
	assert.Equal(t, []string{"https://go.dev/blog/maps"}, g.Results[0].Citations)
	assert.Equal(t, 1, mock.Calls(grading.PurposeEnrich))

	r, err := a.Service.CreateRetry(ctx, service.CreateRetryRequest{QuestionIDs: []int64{q.Set.Items[0].ID}})
	require.NoError(t, err)
	assert.Equal(t, g.AttemptID, r.OriginalAttemptID)
	assert.Equal(t, 3, r.TotalQuestions)

	for name, want := range map[string]int{
		"lecsum_quiz_critique_total":       1,
		"lecsum_grading_enrichment_total":  1,
		"lecsum_pipeline_duration_seconds": 3,
	} {
		n, err := testutil.GatherAndCount(a.Metrics.Registry, name)
		require.NoError(t, err)
		assert.Equal(t, want, n, name)
	}
}

func TestApp_WithoutLLM(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.Anthropic.APIKey = ""

	ctx := context.Background()
	a, err := New(ctx, cfg, Options{Log: zap.NewNop()})
	require.NoError(t, err)
	defer a.Close(ctx)

	err = a.RequireLLM()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	// Storage-only operations keep working.
	doc, err := a.Service.AddDocument(ctx, service.AddDocumentRequest{Name: "a.md", Content: "text"})
	require.NoError(t, err)

	_, err = a.Service.GenerateQuiz(ctx, service.GenerateQuizRequest{DocumentID: doc.ID})
	require.Error(t, err)
	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, service.CategoryUpstream, service.Classify(err))
}

func TestApp_CloseIsClean(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), Options{Log: zap.NewNop(), Provider: llm.NewMockProvider()})
	require.NoError(t, err)
	assert.NoError(t, a.Close(ctx))
}
