package retryquiz

import (
	"fmt"
	"strings"

	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
)

const systemPrompt = `You are an education expert. A student got a quiz question wrong. Write new questions based on it to help them review.

Guidelines:
1. Keep the concept: cover the same key idea as the original, with different wording and examples.
2. Keep the difficulty close to the original.
3. Vary the question type where possible.
4. Every question has a clear, detailed explanation.

Question types:
- multiple_choice: four options; correct_answer is the exact text of one option.
- true_false: options are ["O","X"]; correct_answer is O or X.
- short_answer: options are empty.
- fill_in_blank: a sentence with _____; options are empty.`

const exampleOriginal = `Type: short_answer
Question: What is overfitting in machine learning?
Correct answer: fitting the training data so closely that performance on new data drops
Explanation: An overfit model learns noise in the training data and generalises poorly.`

const exampleOutput = `{"quizzes":[` +
	`{"type":"multiple_choice","question":"Which of these does NOT help prevent overfitting?","options":["Regularisation","Data augmentation","Raising the learning rate","Dropout"],"correct_answer":"Raising the learning rate","explanation":"Regularisation, augmentation and dropout all reduce overfitting; the learning rate does not address it."},` +
	`{"type":"true_false","question":"An overfit model has low training loss but high validation loss.","options":["O","X"],"correct_answer":"O","explanation":"It fits the training data well and new data poorly, so the two losses diverge."},` +
	`{"type":"short_answer","question":"Which metric is compared with training loss to detect overfitting?","options":[],"correct_answer":"validation loss","explanation":"A widening gap between training and validation loss signals overfitting."}` +
	`]}`

func describe(item quiz.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\n", item.Type)
	fmt.Fprintf(&b, "Question: %s\n", item.Question)
	if len(item.Options) > 0 {
		fmt.Fprintf(&b, "Options: %s\n", strings.Join(item.Options, " | "))
	}
	fmt.Fprintf(&b, "Correct answer: %s\n", item.CorrectAnswer)
	fmt.Fprintf(&b, "Explanation: %s", item.Explanation)
	return b.String()
}

func userMessage(original string, n int) string {
	return fmt.Sprintf("Original question:\n```\n%s\n```\nWrite %d similar questions based on it.", original, n)
}

func buildMessages(item quiz.Item, n int) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Content: userMessage(exampleOriginal, 3)},
		{Role: llm.RoleAssistant, Content: exampleOutput},
		{Role: llm.RoleUser, Content: userMessage(describe(item), n)},
	}
}

// variantsSchema leaves the count open: a short or long reply is logged
// and kept.
var variantsSchema = &llm.Schema{
	Name:        "retry-variants",
	Description: "New practice questions derived from one missed question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quizzes": map[string]any{
				"type":  "array",
				"items": quiz.ItemSchema(),
			},
		},
		"required":             []any{"quizzes"},
		"additionalProperties": false,
	},
}

type variantsOutput struct {
	Quizzes []quiz.Item `json:"quizzes"`
}
