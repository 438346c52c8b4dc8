package service

import (
	"github.com/abhisek/lecsum/internal/grading"
	"github.com/abhisek/lecsum/internal/quiz"
)

// GenerateQuizRequest asks for a new quiz over a stored document.
type GenerateQuizRequest struct {
	DocumentID int64 `validate:"gt=0"`

	// RecentDigest lists questions the new quiz must not repeat. Empty
	// means the document's recent questions are used. A lone
	// quizgen.NoneYet entry asks for a quiz with no exclusions.
	RecentDigest []string
}

// QuizResponse is a freshly generated and persisted quiz.
type QuizResponse struct {
	Set     *quiz.Set
	Verdict string
	Revised []int
}

// GradeRequest submits answers for questions of an original quiz set.
type GradeRequest struct {
	QuizSetID   int64    `validate:"gt=0"`
	QuestionIDs []int64  `validate:"min=1,dive,gt=0"`
	Answers     []string `validate:"eqfield=QuestionIDs"`
}

// RetryGradeRequest submits answers for questions of a retry set.
type RetryGradeRequest struct {
	RetrySetID  int64    `validate:"gt=0"`
	QuestionIDs []int64  `validate:"min=1,dive,gt=0"`
	Answers     []string `validate:"eqfield=QuestionIDs"`
}

// ResultView is one graded answer as returned to the caller.
type ResultView struct {
	QuizID        int64
	Question      string
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
	Feedback      string
	Outcome       grading.Outcome
	Citations     []string
}

// GradeResponse is the persisted outcome of a grading pass.
type GradeResponse struct {
	AttemptID int64
	Score     int
	Correct   int
	Total     int
	Results   []ResultView
}

// CreateRetryRequest selects missed questions to practise again.
type CreateRetryRequest struct {
	QuestionIDs []int64 `validate:"min=1,dive,gt=0"`
}

// RetryItemView is one question of a retry set with its origin.
type RetryItemView struct {
	quiz.Item
	OriginalQuizID int64
	Position       int
}

// RetryResponse is a freshly generated and persisted retry set.
type RetryResponse struct {
	RetrySetID        int64
	QuizSetID         int64
	OriginalAttemptID int64
	TotalQuestions    int
	Items             []RetryItemView
}

// AddDocumentRequest stores source material.
type AddDocumentRequest struct {
	Name    string `validate:"required,max=255"`
	Content string `validate:"required"`
}
