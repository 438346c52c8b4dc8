package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/abhisek/lecsum/internal/quiz"
)

var testDBSeq atomic.Int64

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:lecsum-test-%d?mode=memory&cache=shared", testDBSeq.Add(1))
	s, err := Open(context.Background(), Config{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleItems() []quiz.Item {
	return []quiz.Item{
		{Question: "Is Go compiled?", Type: quiz.TypeTrueFalse, Options: []string{"O", "X"}, CorrectAnswer: "O", Explanation: "Go compiles to machine code."},
		{Question: "Which keyword starts a goroutine?", Type: quiz.TypeMultipleChoice, Options: []string{"go", "async", "spawn", "run"}, CorrectAnswer: "go", Explanation: "The go statement."},
		{Question: "What does defer schedule?", Type: quiz.TypeShortAnswer, CorrectAnswer: "a call at function return", Explanation: "Deferred calls run on return."},
	}
}

func seedQuizSet(t *testing.T, s *Store) (*Document, *quiz.Set) {
	t.Helper()
	ctx := context.Background()
	doc, err := s.Documents().Create(ctx, "go-basics.md", "Go is a compiled language.")
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	set, err := s.Quizzes().CreateQuizSet(ctx, doc.ID, sampleItems())
	if err != nil {
		t.Fatalf("create quiz set: %v", err)
	}
	return doc, set
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// In-memory databases report journal_mode=memory, so it is skipped.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		in     string
		prefix string
	}{
		{"/tmp/x.db", "file:/tmp/x.db?_pragma=foreign_keys(1)"},
		{"file:x?mode=memory", "file:x?mode=memory&_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		got := sqliteDSN(tt.in)
		if len(got) < len(tt.prefix) || got[:len(tt.prefix)] != tt.prefix {
			t.Errorf("sqliteDSN(%q) = %q, want prefix %q", tt.in, got, tt.prefix)
		}
	}
}

func TestDocuments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Documents()

	a, err := repo.Create(ctx, "a.md", "alpha")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == 0 || a.UUID == "" {
		t.Fatalf("expected id and uuid, got %+v", a)
	}
	b, err := repo.Create(ctx, "b.md", "beta")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "a.md" || got.Content != "alpha" || got.UUID != a.UUID {
		t.Errorf("get = %+v", got)
	}

	if _, err := repo.Get(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}

	docs, err := repo.List(ctx, PageOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != b.ID {
		t.Fatalf("list = %+v, want newest first", docs)
	}

	docs, err = repo.List(ctx, PageOpts{Offset: 1})
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != a.ID {
		t.Errorf("list offset = %+v", docs)
	}
}

func TestQuizSetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc, set := seedQuizSet(t, s)

	if len(set.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(set.Items))
	}
	for _, it := range set.Items {
		if it.ID == 0 {
			t.Fatal("expected persisted item ids")
		}
	}
	if set.Items[2].Options == nil {
		t.Error("short answer options should be an empty list, not nil")
	}

	got, err := s.Quizzes().GetQuizSet(ctx, set.ID)
	if err != nil {
		t.Fatalf("get quiz set: %v", err)
	}
	if got.DocumentID != doc.ID {
		t.Errorf("document id = %d, want %d", got.DocumentID, doc.ID)
	}
	for i, it := range got.Items {
		want := set.Items[i]
		if it.ID != want.ID || it.Question != want.Question || it.Type != want.Type || it.CorrectAnswer != want.CorrectAnswer {
			t.Errorf("item %d = %+v, want %+v", i, it, want)
		}
		if len(it.Options) != len(want.Options) {
			t.Errorf("item %d options = %v, want %v", i, it.Options, want.Options)
		}
	}

	if _, err := s.Quizzes().GetQuizSet(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing set: err = %v, want ErrNotFound", err)
	}
}

func TestGetQuizzes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc, set := seedQuizSet(t, s)

	ids := []int64{set.Items[0].ID, set.Items[2].ID, 9999}
	got, err := s.Quizzes().GetQuizzes(ctx, ids)
	if err != nil {
		t.Fatalf("get quizzes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d quizzes, want 2", len(got))
	}
	q := got[set.Items[2].ID]
	if q.Number != 3 || q.DocumentID != doc.ID || q.QuizSetID != set.ID {
		t.Errorf("stored quiz = %+v", q)
	}

	empty, err := s.Quizzes().GetQuizzes(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty ids: %v, %v", empty, err)
	}
}

func TestRecentQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc, _ := seedQuizSet(t, s)

	got, err := s.Quizzes().RecentQuestions(ctx, doc.ID, 2)
	if err != nil {
		t.Fatalf("recent questions: %v", err)
	}
	want := []string{"What does defer schedule?", "Which keyword starts a goroutine?"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	other, err := s.Quizzes().RecentQuestions(ctx, doc.ID+1, 10)
	if err != nil {
		t.Fatalf("recent questions: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unrelated document returned %v", other)
	}
}

func TestSaveAttempt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, set := seedQuizSet(t, s)

	results := []quiz.AttemptResult{
		{QuizID: set.Items[0].ID, UserAnswer: "O", IsCorrect: true, Feedback: "Right."},
		{QuizID: set.Items[1].ID, UserAnswer: "spawn", IsCorrect: false, Feedback: "It is go."},
		{QuizID: set.Items[2].ID, UserAnswer: "a call on return", IsCorrect: true, Feedback: "Yes."},
	}
	attempt, err := s.Attempts().SaveAttempt(ctx, quiz.Original{QuizSetID: set.ID}, results)
	if err != nil {
		t.Fatalf("save attempt: %v", err)
	}
	if attempt.Score != 67 || attempt.Total != 3 || attempt.Correct != 2 {
		t.Errorf("attempt score = %d (%d/%d), want 67 (2/3)", attempt.Score, attempt.Correct, attempt.Total)
	}

	got, err := s.Attempts().GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if got.Score != 67 {
		t.Errorf("stored score = %d, want 67", got.Score)
	}
	if tgt, ok := got.Target.(quiz.Original); !ok || tgt.QuizSetID != set.ID {
		t.Errorf("target = %v", got.Target)
	}
	if len(got.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(got.Results))
	}
	if got.Results[1].Question != "Which keyword starts a goroutine?" || got.Results[1].IsCorrect {
		t.Errorf("result[1] = %+v", got.Results[1])
	}

	latest, err := s.Attempts().LatestAttemptForQuiz(ctx, set.Items[1].ID)
	if err != nil {
		t.Fatalf("latest attempt: %v", err)
	}
	if latest != attempt.ID {
		t.Errorf("latest = %d, want %d", latest, attempt.ID)
	}
	if _, err := s.Attempts().LatestAttemptForQuiz(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("latest for unknown quiz: err = %v, want ErrNotFound", err)
	}
}

func TestSaveAttemptEmpty(t *testing.T) {
	s := openTestStore(t)
	_, set := seedQuizSet(t, s)

	attempt, err := s.Attempts().SaveAttempt(context.Background(), quiz.Original{QuizSetID: set.ID}, nil)
	if err != nil {
		t.Fatalf("save attempt: %v", err)
	}
	if attempt.Score != 0 || attempt.Total != 0 {
		t.Errorf("empty attempt = %+v", attempt)
	}
}

func TestSaveAttemptRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, set := seedQuizSet(t, s)

	results := []quiz.AttemptResult{
		{QuizID: set.Items[0].ID, UserAnswer: "O", IsCorrect: true},
		{QuizID: 424242, UserAnswer: "?", IsCorrect: false},
	}
	if _, err := s.Attempts().SaveAttempt(ctx, quiz.Original{QuizSetID: set.ID}, results); err == nil {
		t.Fatal("expected foreign key failure")
	}

	for _, table := range []string{"attempts", "quiz_results"} {
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after rollback, want 0", table, n)
		}
	}
}

func TestSaveRetrySetRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc, set := seedQuizSet(t, s)

	attempt, err := s.Attempts().SaveAttempt(ctx, quiz.Original{QuizSetID: set.ID}, []quiz.AttemptResult{
		{QuizID: set.Items[0].ID, UserAnswer: "X", IsCorrect: false},
	})
	if err != nil {
		t.Fatalf("save attempt: %v", err)
	}

	count := func(table string) int {
		t.Helper()
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		return n
	}
	tables := []string{"quiz_sets", "quizzes", "retry_quiz_sets", "retry_quiz_items"}
	before := make(map[string]int)
	for _, table := range tables {
		before[table] = count(table)
	}

	variant := func(q string) quiz.Item {
		return quiz.Item{Question: q, Type: quiz.TypeShortAnswer, CorrectAnswer: "a", Explanation: "e"}
	}
	// The second group points at a missing question, so the fourth retry
	// item violates its foreign key after everything else was written.
	groups := []RetryGroup{
		{OriginalQuizID: set.Items[0].ID, Items: []quiz.Item{variant("a1"), variant("a2"), variant("a3")}},
		{OriginalQuizID: 424242, Items: []quiz.Item{variant("b1"), variant("b2"), variant("b3")}},
	}
	if _, _, err := s.Retries().SaveRetrySet(ctx, doc.ID, attempt.ID, groups); err == nil {
		t.Fatal("expected foreign key failure")
	}

	for _, table := range tables {
		if got := count(table); got != before[table] {
			t.Errorf("%s has %d rows after rollback, want %d", table, got, before[table])
		}
	}
}

func TestWrongAnswersAndRetrySet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc, set := seedQuizSet(t, s)

	results := []quiz.AttemptResult{
		{QuizID: set.Items[0].ID, UserAnswer: "X", IsCorrect: false, Feedback: "It is compiled."},
		{QuizID: set.Items[1].ID, UserAnswer: "go", IsCorrect: true},
		{QuizID: set.Items[2].ID, UserAnswer: "nothing", IsCorrect: false, Feedback: "It schedules a call."},
	}
	attempt, err := s.Attempts().SaveAttempt(ctx, quiz.Original{QuizSetID: set.ID}, results)
	if err != nil {
		t.Fatalf("save attempt: %v", err)
	}

	wrong, err := s.Attempts().WrongAnswers(ctx, WrongAnswerOpts{})
	if err != nil {
		t.Fatalf("wrong answers: %v", err)
	}
	if len(wrong) != 2 {
		t.Fatalf("wrong answers = %d, want 2", len(wrong))
	}
	if wrong[0].Quiz.ID != set.Items[2].ID || wrong[0].DocumentName != "go-basics.md" || wrong[0].AttemptID != attempt.ID {
		t.Errorf("wrong[0] = %+v", wrong[0])
	}
	if wrong[1].UserAnswer != "X" || wrong[1].Quiz.CorrectAnswer != "O" {
		t.Errorf("wrong[1] = %+v", wrong[1])
	}

	none, err := s.Attempts().WrongAnswers(ctx, WrongAnswerOpts{DocumentID: doc.ID + 1})
	if err != nil {
		t.Fatalf("wrong answers filtered: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("filtered wrong answers = %d, want 0", len(none))
	}

	variant := func(q string) quiz.Item {
		return quiz.Item{Question: q, Type: quiz.TypeShortAnswer, CorrectAnswer: "a", Explanation: "e"}
	}
	groups := []RetryGroup{
		{OriginalQuizID: set.Items[0].ID, Items: []quiz.Item{variant("a1"), variant("a2"), variant("a3")}},
		{OriginalQuizID: set.Items[2].ID, Items: []quiz.Item{variant("c1"), variant("c2"), variant("c3")}},
	}
	rs, retrySet, err := s.Retries().SaveRetrySet(ctx, doc.ID, attempt.ID, groups)
	if err != nil {
		t.Fatalf("save retry set: %v", err)
	}
	if len(retrySet.Items) != 6 || len(rs.Items) != 6 {
		t.Fatalf("retry items = %d/%d, want 6", len(retrySet.Items), len(rs.Items))
	}
	if rs.Items[3].OriginalQuizID != set.Items[2].ID || rs.Items[3].Position != 4 {
		t.Errorf("retry item 4 = %+v", rs.Items[3])
	}

	got, err := s.Retries().GetRetrySet(ctx, rs.ID)
	if err != nil {
		t.Fatalf("get retry set: %v", err)
	}
	if got.OriginalAttemptID != attempt.ID || got.QuizSetID != retrySet.ID || len(got.Items) != 6 {
		t.Errorf("retry set = %+v", got)
	}

	retryAttempt, err := s.Attempts().SaveAttempt(ctx, quiz.Retry{RetrySetID: rs.ID}, []quiz.AttemptResult{
		{QuizID: retrySet.Items[0].ID, UserAnswer: "a", IsCorrect: true},
	})
	if err != nil {
		t.Fatalf("save retry attempt: %v", err)
	}

	retries, err := s.Attempts().ListAttempts(ctx, AttemptListOpts{RetryOnly: true})
	if err != nil {
		t.Fatalf("list retry attempts: %v", err)
	}
	if len(retries) != 1 || retries[0].ID != retryAttempt.ID || !quiz.IsRetry(retries[0].Target) {
		t.Errorf("retry attempts = %+v", retries)
	}

	all, err := s.Attempts().ListAttempts(ctx, AttemptListOpts{PageOpts: PageOpts{Limit: 10}})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(all) != 2 || all[0].ID != retryAttempt.ID {
		t.Errorf("attempts = %+v, want newest first", all)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-sonnet-4-5-20250929", Purpose: "quiz-draft", InputTokens: 100, OutputTokens: 50, LatencyMs: 300, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-5-20250929", Purpose: "quiz-draft", InputTokens: 120, OutputTokens: 40, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4.1-mini", Purpose: "grade-batch", InputTokens: 10, OutputTokens: 5, LatencyMs: 50, ErrorMessage: "boom"},
	}
	for _, ev := range events {
		if err := repo.AppendLLMRequest(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "quiz-draft"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].InputTokens != 120 {
		t.Fatalf("query = %+v", got)
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 1 || limited[0].Purpose != "grade-batch" {
		t.Errorf("limited = %+v", limited)
	}

	ev, err := repo.GetLLMEvent(ctx, limited[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ev.Success || ev.ErrorMessage != "boom" {
		t.Errorf("event = %+v", ev)
	}
	if _, err := repo.GetLLMEvent(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing event: err = %v, want ErrNotFound", err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("usage by purpose = %+v", byPurpose)
	}
	draft := byPurpose[0]
	if draft.Purpose != "quiz-draft" || draft.Calls != 2 || draft.InputTokens != 220 || draft.AvgLatencyMs != 200 {
		t.Errorf("quiz-draft usage = %+v", draft)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "claude-sonnet-4-5-20250929" || byModel[0].OutputTokens != 90 {
		t.Errorf("usage by model = %+v", byModel)
	}
}
