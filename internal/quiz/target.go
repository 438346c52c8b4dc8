package quiz

import "fmt"

// AttemptTarget identifies what an attempt was graded against. An attempt
// targets either an original quiz set or a retry set, never both.
type AttemptTarget interface {
	isAttemptTarget()
	String() string
}

// Original targets a quiz set generated from a document.
type Original struct {
	QuizSetID int64
}

// Retry targets a retry set generated from a previous attempt's mistakes.
type Retry struct {
	RetrySetID int64
}

func (Original) isAttemptTarget() {}
func (Retry) isAttemptTarget()    {}

func (o Original) String() string { return fmt.Sprintf("quiz-set:%d", o.QuizSetID) }
func (r Retry) String() string    { return fmt.Sprintf("retry-set:%d", r.RetrySetID) }

// IsRetry reports whether t targets a retry set.
func IsRetry(t AttemptTarget) bool {
	_, ok := t.(Retry)
	return ok
}
