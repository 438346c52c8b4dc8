package quizgen

import "github.com/abhisek/lecsum/internal/quiz"

// Critique is the reviewer's verdict on a draft. It is either
// NoChangesRequired or Corrections.
type Critique interface {
	isCritique()
}

// NoChangesRequired accepts the draft as final.
type NoChangesRequired struct{}

// Corrections lists per-item problems the refiner must fix.
type Corrections struct {
	Fixes []ItemFix
}

func (NoChangesRequired) isCritique() {}
func (Corrections) isCritique()       {}

// ItemFix targets one draft item by 0-based position.
type ItemFix struct {
	Index       int    `json:"index"`
	Issue       string `json:"issue"`
	Instruction string `json:"instruction"`
}

// Input is what the pipeline generates from.
type Input struct {
	// Context is the source material text.
	Context string

	// RecentQuestions are questions already asked for this material,
	// newest first. They are rendered into the de-duplication digest.
	RecentQuestions []string
}

// Result is the pipeline output.
type Result struct {
	Items []quiz.Item

	// Critique is the reviewer's verdict on the draft.
	Critique Critique

	// Revised lists the 0-based positions replaced by refinement.
	Revised []int
}

// Verdict labels a critique for logging and metrics.
func Verdict(c Critique) string {
	if _, ok := c.(Corrections); ok {
		return verdictCorrections
	}
	return verdictNoChanges
}
