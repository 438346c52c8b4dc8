package grading

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/lecsum/internal/search"
)

const batchSystemPrompt = `You are a fair grader. Grade every numbered answer against its correct answer.

Rules:
- An answer is correct when it means the same as the correct answer. Ignore spelling slips, spacing and letter case.
- For multiple_choice and true_false the chosen option must match the correct answer.
- Return exactly one result per question, in the same order as the questions.
- Feedback is one or two sentences addressed to the learner.`

const enrichSystemPrompt = `You are a tutor explaining a mistake. The learner answered a quiz question incorrectly.

Write feedback that explains why the answer is wrong and what the correct concept is, building on the prior explanation.
Use the web search results when they help. Cite only URLs that appear in the search results and list each one you use in cited_urls. Never invent a URL. If no result helps, leave cited_urls empty and do not mention any URL.`

// buildBatchMessage formats every submission as a numbered block.
func buildBatchMessage(subs []Submission) string {
	var b strings.Builder
	for i, s := range subs {
		fmt.Fprintf(&b, "[Question %d]\n", i+1)
		fmt.Fprintf(&b, "- Type: %s\n", s.Item.Type)
		fmt.Fprintf(&b, "- Question: %s\n", s.Item.Question)
		if len(s.Item.Options) > 0 {
			fmt.Fprintf(&b, "- Options: %s\n", strings.Join(s.Item.Options, " | "))
		}
		fmt.Fprintf(&b, "- Correct answer: %s\n", s.Item.CorrectAnswer)
		fmt.Fprintf(&b, "- Prior explanation: %s\n", s.Item.Explanation)
		fmt.Fprintf(&b, "- Learner answer: %s\n\n", s.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildEnrichMessage(sub Submission, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", sub.Item.Question)
	fmt.Fprintf(&b, "Learner answer: %s\n", sub.Answer)
	fmt.Fprintf(&b, "Correct answer: %s\n", sub.Item.CorrectAnswer)
	fmt.Fprintf(&b, "Prior explanation: %s\n", sub.Item.Explanation)
	b.WriteString("\nWeb search results:\n")
	b.WriteString(search.Format(results))
	return b.String()
}

var blankPattern = regexp.MustCompile(`_{2,}`)

// searchQuery derives the web query for an item from its question text.
func searchQuery(sub Submission) string {
	q := strings.Join(strings.Fields(blankPattern.ReplaceAllString(sub.Item.Question, " ")), " ")
	const max = 200
	if r := []rune(q); len(r) > max {
		q = string(r[:max])
	}
	return q
}

// fallbackFeedback is used whenever enrichment cannot produce verified
// feedback.
func fallbackFeedback(sub Submission) string {
	msg := fmt.Sprintf("The correct answer is %q.", sub.Item.CorrectAnswer)
	if e := strings.TrimSpace(sub.Item.Explanation); e != "" {
		msg += " " + e
	}
	return msg
}
