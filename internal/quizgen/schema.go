package quizgen

import (
	"fmt"

	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
)

const (
	verdictNoChanges   = "no_changes"
	verdictCorrections = "corrections"
)

// quizSchema describes an object holding exactly n items. Compiled schemas
// are cached by name, so the count is part of it.
func quizSchema(name, description string, n int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("%s-%d", name, n),
		Description: description,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"quizzes": map[string]any{
					"type":     "array",
					"items":    quiz.ItemSchema(),
					"minItems": n,
					"maxItems": n,
				},
			},
			"required":             []any{"quizzes"},
			"additionalProperties": false,
		},
	}
}

func critiqueSchema(n int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("quiz-critique-%d", n),
		Description: "Review of a drafted quiz against its source material",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"verdict": map[string]any{
					"type": "string",
					"enum": []any{verdictNoChanges, verdictCorrections},
				},
				"fixes": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"index": map[string]any{
								"type":        "integer",
								"minimum":     0,
								"maximum":     n - 1,
								"description": "0-based position of the item to fix",
							},
							"issue": map[string]any{
								"type":        "string",
								"description": "What is wrong with the item",
							},
							"instruction": map[string]any{
								"type":        "string",
								"description": "How the item must be rewritten",
							},
						},
						"required":             []any{"index", "issue", "instruction"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"verdict", "fixes"},
			"additionalProperties": false,
		},
	}
}

// quizOutput is the raw draft or refinement payload.
type quizOutput struct {
	Quizzes []quiz.Item `json:"quizzes"`
}

// critiqueOutput is the raw critique payload before it becomes a Critique.
type critiqueOutput struct {
	Verdict string    `json:"verdict"`
	Fixes   []ItemFix `json:"fixes"`
}

func (o critiqueOutput) critique() Critique {
	if o.Verdict != verdictCorrections || len(o.Fixes) == 0 {
		return NoChangesRequired{}
	}
	return Corrections{Fixes: o.Fixes}
}
