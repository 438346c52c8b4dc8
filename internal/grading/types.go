package grading

import (
	"errors"
	"fmt"

	"github.com/abhisek/lecsum/internal/quiz"
)

// Submission pairs a question with the learner's answer.
type Submission struct {
	Item   quiz.Item
	Answer string
}

// Outcome records how a slot's feedback was produced.
type Outcome string

const (
	// OutcomeGraded keeps the batch grader's feedback (correct answers).
	OutcomeGraded Outcome = "graded"

	// OutcomeEnriched carries search-backed feedback with verified citations.
	OutcomeEnriched Outcome = "enriched"

	// OutcomeFallback carries the deterministic fallback message.
	OutcomeFallback Outcome = "fallback"
)

// Result is the pipeline output. All slices are index-aligned with the
// submissions.
type Result struct {
	Results   []quiz.GradeResult
	Outcomes  []Outcome
	Citations [][]string
}

// Correct returns the number of correct results.
func (r *Result) Correct() int {
	return quiz.CountCorrect(r.Results)
}

// ErrGradingCountMismatch matches any *CountMismatchError.
var ErrGradingCountMismatch = errors.New("grading result count mismatch")

// CountMismatchError reports a batch grade whose length differs from the
// number of submissions.
type CountMismatchError struct {
	Got  int
	Want int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("grading returned %d results for %d submissions", e.Got, e.Want)
}

func (e *CountMismatchError) Is(target error) bool {
	return target == ErrGradingCountMismatch
}
