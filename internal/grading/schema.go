package grading

import (
	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
)

// batchSchema leaves the result count open so a short or long reply
// surfaces as a CountMismatchError rather than a schema failure.
var batchSchema = &llm.Schema{
	Name:        "grade-batch",
	Description: "One verdict per submitted answer, in order",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"results": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"is_correct": map[string]any{
							"type":        "boolean",
							"description": "Whether the answer means the same as the correct answer",
						},
						"feedback": map[string]any{
							"type":        "string",
							"description": "Short feedback for the learner",
						},
					},
					"required":             []any{"is_correct", "feedback"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"results"},
		"additionalProperties": false,
	},
}

var enrichSchema = &llm.Schema{
	Name:        "grade-enrich",
	Description: "Detailed feedback for one incorrect answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feedback": map[string]any{
				"type":        "string",
				"description": "Why the answer is wrong and what the right concept is",
			},
			"cited_urls": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "URLs of the provided search results the feedback relies on",
			},
		},
		"required":             []any{"feedback", "cited_urls"},
		"additionalProperties": false,
	},
}

type batchOutput struct {
	Results []quiz.GradeResult `json:"results"`
}

type enrichOutput struct {
	Feedback  string   `json:"feedback"`
	CitedURLs []string `json:"cited_urls"`
}
