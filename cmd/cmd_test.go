package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/service"
	"github.com/abhisek/lecsum/internal/store"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "x1"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, service.ErrInvalidRequest, bad)
	}
}

func TestSelectItems(t *testing.T) {
	items := []quiz.Item{{ID: 1, Question: "a"}, {ID: 2, Question: "b"}, {ID: 3, Question: "c"}}

	assert.Equal(t, items, selectItems(items, nil))

	got := selectItems(items, []int64{3, 1, 99})
	assert.Equal(t, []int64{3, 1, 99}, itemIDs(got))
	assert.Equal(t, "c", got[0].Question)
}

func TestOptionAnswer(t *testing.T) {
	mc := quiz.Item{Type: quiz.TypeMultipleChoice, Options: []string{"chan", "mutex", "map"}}
	assert.Equal(t, "mutex", optionAnswer(mc, "b"))
	assert.Equal(t, "mutex", optionAnswer(mc, "B"))
	assert.Equal(t, "z", optionAnswer(mc, "z"))
	assert.Equal(t, "map", optionAnswer(mc, "map"))

	tf := quiz.Item{Type: quiz.TypeTrueFalse, Options: []string{"O", "X"}}
	assert.Equal(t, "a", optionAnswer(tf, "a"))
}

func TestAskAnswers(t *testing.T) {
	items := []quiz.Item{
		{ID: 1, Type: quiz.TypeMultipleChoice, Question: "Pick one", Options: []string{"x", "y"}},
		{ID: 2, Type: quiz.TypeShortAnswer, Question: "Say it"},
	}
	var out bytes.Buffer
	answers, err := askAnswers(strings.NewReader("b\n  hello  \n"), &out, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "hello"}, answers)
	assert.Contains(t, out.String(), "Question 2/2")

	_, err = askAnswers(strings.NewReader("only one\n"), &out, items)
	assert.ErrorContains(t, err, "input closed after 1 of 2")
}

func TestSummarize(t *testing.T) {
	s := summarize([]quiz.Attempt{
		{Target: quiz.Retry{RetrySetID: 1}, Score: 50, Correct: 3, Total: 6},
		{Target: quiz.Original{QuizSetID: 1}, Score: 100, Correct: 2, Total: 2},
	})
	assert.Equal(t, 2, s.attempts)
	assert.Equal(t, 1, s.retries)
	assert.Equal(t, 8, s.answered)
	assert.Equal(t, 5, s.correct)
	assert.Equal(t, 63, s.overall)
	assert.Equal(t, 50, s.latest)
	assert.Equal(t, 100, s.best)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}

func TestDocCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	notes := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(notes, []byte("Goroutines are cheap."), 0o600))
	db := filepath.Join(dir, "data", "lecsum.db")
	envFile := filepath.Join(dir, "none.env")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, "--db", db, "--env-file", envFile, "--config", ""))
		require.NoError(t, rootCmd.ExecuteContext(context.Background()))
		return out.String()
	}

	assert.Contains(t, run("doc", "add", notes, "--name", "go-notes"), "Added document #1 (go-notes)")
	assert.Contains(t, run("doc", "list"), "go-notes")
	assert.Contains(t, run("attempts", "list"), "No attempts yet.")
	assert.Contains(t, run("version"), "lecsum")
}

func TestCostTable(t *testing.T) {
	out, unknown := costTable([]store.ModelUsage{
		{Model: "gpt-4o-mini", Calls: 2, InputTokens: 1_000_000, OutputTokens: 0},
		{Model: "house-model", Calls: 1, InputTokens: 10, OutputTokens: 10},
	})
	assert.Equal(t, []string{"house-model"}, unknown)
	assert.Contains(t, out, "$0.15")
	assert.Contains(t, out, "TOTAL (partial)")
}

func TestPurposeTable(t *testing.T) {
	out := purposeTable([]store.PurposeUsage{
		{Purpose: "quiz-draft", Calls: 2, InputTokens: 100, OutputTokens: 50, AvgLatencyMs: 900},
		{Purpose: "grade-enrich", Calls: 3, InputTokens: 30, OutputTokens: 20, AvgLatencyMs: 400},
	})
	assert.Contains(t, out, "quiz-draft")
	assert.Contains(t, out, "200")
}
