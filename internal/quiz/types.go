package quiz

import "time"

// ItemType identifies how a learner answers a quiz item.
type ItemType string

const (
	TypeMultipleChoice ItemType = "multiple_choice"
	TypeTrueFalse      ItemType = "true_false"
	TypeShortAnswer    ItemType = "short_answer"
	TypeFillInBlank    ItemType = "fill_in_blank"
)

// AllTypes lists every item type in the order used by prompts and schemas.
var AllTypes = []ItemType{TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeFillInBlank}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeFillInBlank:
		return true
	}
	return false
}

// TrueFalseOptions is the fixed option list carried by every true_false item.
var TrueFalseOptions = []string{"O", "X"}

// Item is a single quiz question.
type Item struct {
	// ID is zero until the item has been persisted.
	ID int64 `json:"id,omitempty"`

	Question string   `json:"question"`
	Type     ItemType `json:"type"`

	// Options is empty unless Type is multiple_choice or true_false.
	Options []string `json:"options"`

	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// Draft is an unpersisted, ordered quiz produced by generation.
type Draft []Item

// Set is a persisted, ordered quiz tied to one source document.
type Set struct {
	ID         int64
	DocumentID int64
	Items      []Item
	CreatedAt  time.Time
}

// QuestionIDs returns the ids of the set's items in order.
func (s *Set) QuestionIDs() []int64 {
	ids := make([]int64, len(s.Items))
	for i, it := range s.Items {
		ids[i] = it.ID
	}
	return ids
}

// GradeResult is the verdict for one submitted answer.
type GradeResult struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// AttemptResult is one persisted per-question row of an attempt.
type AttemptResult struct {
	QuizID     int64
	Question   string
	UserAnswer string
	IsCorrect  bool
	Feedback   string
}

// Attempt is the persisted record of one grading pass.
type Attempt struct {
	ID      int64
	Target  AttemptTarget
	Score   int
	Total   int
	Correct int
	Results []AttemptResult

	CreatedAt time.Time
}

// RetryItem maps one generated question back to the missed question it was
// derived from.
type RetryItem struct {
	QuizID         int64
	OriginalQuizID int64
	Position       int // 1-based position within the retry set
}

// RetrySet links the attempt being remediated to the quiz set generated for it.
type RetrySet struct {
	ID                int64
	OriginalAttemptID int64
	QuizSetID         int64
	Items             []RetryItem

	CreatedAt time.Time
}
