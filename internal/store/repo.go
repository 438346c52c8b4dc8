package store

import (
	"context"
	"time"

	"github.com/abhisek/lecsum/internal/quiz"
)

// Document is a stored piece of source material.
type Document struct {
	ID        int64
	UUID      string
	Name      string
	Content   string
	CreatedAt time.Time
}

// DocumentRepo stores source documents.
type DocumentRepo interface {
	Create(ctx context.Context, name, content string) (*Document, error)
	Get(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context, opts PageOpts) ([]Document, error)
}

// PageOpts paginates list queries. Zero Limit means unlimited.
type PageOpts struct {
	Limit  int
	Offset int
}

// StoredQuiz is a persisted quiz item together with where it lives.
type StoredQuiz struct {
	quiz.Item
	QuizSetID  int64
	DocumentID int64
	Number     int
}

// QuizRepo stores quiz sets and their items.
type QuizRepo interface {
	// CreateQuizSet writes the set and its items (numbered 1..n) atomically.
	CreateQuizSet(ctx context.Context, documentID int64, items []quiz.Item) (*quiz.Set, error)

	GetQuizSet(ctx context.Context, id int64) (*quiz.Set, error)

	// GetQuizzes returns the items with the given ids keyed by id. Missing
	// ids are simply absent from the map.
	GetQuizzes(ctx context.Context, ids []int64) (map[int64]StoredQuiz, error)

	// RecentQuestions returns up to n question texts for a document,
	// newest first.
	RecentQuestions(ctx context.Context, documentID int64, n int) ([]string, error)
}

// AttemptListOpts filters attempt listings.
type AttemptListOpts struct {
	PageOpts
	RetryOnly bool
}

// WrongAnswer is one incorrect result with the question it answered.
type WrongAnswer struct {
	ResultID     int64
	AttemptID    int64
	Quiz         StoredQuiz
	DocumentName string
	UserAnswer   string
	Feedback     string
	CreatedAt    time.Time
}

// WrongAnswerOpts filters wrong-answer listings.
type WrongAnswerOpts struct {
	PageOpts
	DocumentID int64 // 0 means all documents
}

// AttemptRepo stores graded attempts.
type AttemptRepo interface {
	// SaveAttempt creates the attempt, its result rows and its score in one
	// transaction. Nothing is written if any step fails.
	SaveAttempt(ctx context.Context, target quiz.AttemptTarget, results []quiz.AttemptResult) (*quiz.Attempt, error)

	// GetAttempt returns the attempt with its per-question results.
	GetAttempt(ctx context.Context, id int64) (*quiz.Attempt, error)

	// ListAttempts returns attempts newest first, without results.
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]quiz.Attempt, error)

	WrongAnswers(ctx context.Context, opts WrongAnswerOpts) ([]WrongAnswer, error)

	// LatestAttemptForQuiz returns the id of the newest attempt that
	// contains a result for quizID.
	LatestAttemptForQuiz(ctx context.Context, quizID int64) (int64, error)
}

// RetryGroup is the set of variants generated from one missed question.
type RetryGroup struct {
	OriginalQuizID int64
	Items          []quiz.Item
}

// RetryRepo stores retry sets.
type RetryRepo interface {
	// SaveRetrySet writes the new quiz set, its items, the retry set and
	// the retry item links in one transaction. Items are numbered
	// 1..N in group order.
	SaveRetrySet(ctx context.Context, documentID, originalAttemptID int64, groups []RetryGroup) (*quiz.RetrySet, *quiz.Set, error)

	GetRetrySet(ctx context.Context, id int64) (*quiz.RetrySet, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose match when non-empty
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
