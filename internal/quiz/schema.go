package quiz

// ItemSchema returns the JSON Schema of a single item as generated by the
// model. Generation pipelines embed it in their response schemas.
func ItemSchema() map[string]any {
	types := make([]any, len(AllTypes))
	for i, t := range AllTypes {
		types[i] = string(t)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": types,
			},
			"question": map[string]any{
				"type":        "string",
				"description": "The question shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "4 options for multiple_choice, [\"O\",\"X\"] for true_false, empty otherwise",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "For multiple_choice the exact text of the correct option; O or X for true_false",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer is correct and why the distractors are not",
			},
		},
		"required":             []any{"type", "question", "options", "correct_answer", "explanation"},
		"additionalProperties": false,
	}
}
