package quiz

import "strings"

// Normalize returns a copy of item with option invariants enforced:
// true_false items carry exactly ["O","X"], short_answer and fill_in_blank
// items carry no options. Multiple choice options are left as generated.
func Normalize(item Item) Item {
	out := item
	switch item.Type {
	case TypeTrueFalse:
		out.Options = append([]string(nil), TrueFalseOptions...)
	case TypeShortAnswer, TypeFillInBlank:
		out.Options = []string{}
	default:
		if item.Options == nil {
			out.Options = []string{}
		} else {
			out.Options = append([]string(nil), item.Options...)
		}
	}
	return out
}

// NormalizeAll applies Normalize to every item, preserving order.
func NormalizeAll(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Normalize(it)
	}
	return out
}

// answerKey folds an answer for loose comparison.
func answerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
