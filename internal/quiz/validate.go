package quiz

import (
	"fmt"
	"strings"
)

// ValidationError describes an item that breaks a structural invariant.
type ValidationError struct {
	Position int // 0-based position in the quiz, -1 when unknown
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("invalid quiz item: %s", e.Message)
	}
	return fmt.Sprintf("invalid quiz item %d: %s", e.Position+1, e.Message)
}

// ValidateItem checks the structural invariants of a single item.
func ValidateItem(item Item) error {
	if strings.TrimSpace(item.Question) == "" {
		return &ValidationError{Position: -1, Message: "question text is empty"}
	}
	if !item.Type.Valid() {
		return &ValidationError{Position: -1, Message: fmt.Sprintf("unknown type %q", item.Type)}
	}
	if strings.TrimSpace(item.CorrectAnswer) == "" {
		return &ValidationError{Position: -1, Message: "correct answer is empty"}
	}

	switch item.Type {
	case TypeMultipleChoice:
		if len(item.Options) < 2 {
			return &ValidationError{Position: -1, Message: fmt.Sprintf("multiple choice needs at least 2 options, got %d", len(item.Options))}
		}
		if !containsAnswer(item.Options, item.CorrectAnswer) {
			return &ValidationError{Position: -1, Message: fmt.Sprintf("correct answer %q is not one of the options", item.CorrectAnswer)}
		}
	case TypeTrueFalse:
		if len(item.Options) != 2 || item.Options[0] != "O" || item.Options[1] != "X" {
			return &ValidationError{Position: -1, Message: "true/false options must be [O X]"}
		}
		if !containsAnswer(TrueFalseOptions, item.CorrectAnswer) {
			return &ValidationError{Position: -1, Message: fmt.Sprintf("true/false answer must be O or X, got %q", item.CorrectAnswer)}
		}
	}
	return nil
}

// ValidateItems checks every item and reports the first failure with its position.
func ValidateItems(items []Item) error {
	for i, it := range items {
		if err := ValidateItem(it); err != nil {
			verr := err.(*ValidationError)
			return &ValidationError{Position: i, Message: verr.Message}
		}
	}
	return nil
}

func containsAnswer(options []string, answer string) bool {
	key := answerKey(answer)
	for _, o := range options {
		if answerKey(o) == key {
			return true
		}
	}
	return false
}
