package grading

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/lecsum/internal/search"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\[\]]+`)

// extractURLs returns the URLs mentioned in free text, with trailing
// punctuation trimmed. A closing parenthesis stays only when the URL
// opened it, so "(see https://x/Go_(lang))" yields "https://x/Go_(lang)".
func extractURLs(text string) []string {
	raw := urlPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		out = append(out, trimURL(u))
	}
	return out
}

func trimURL(u string) string {
	for {
		u = strings.TrimRight(u, ".,;:!?")
		if !strings.HasSuffix(u, ")") || strings.Count(u, "(") >= strings.Count(u, ")") {
			return u
		}
		u = u[:len(u)-1]
	}
}

// checkCitations verifies that every cited URL, and every URL in the
// feedback text, is one of the search results. It returns the verified
// citations in first-seen order.
func checkCitations(out enrichOutput, results []search.Result) ([]string, error) {
	allowed := search.URLSet(results)

	var cited []string
	seen := make(map[string]bool)
	for _, u := range append(append([]string(nil), out.CitedURLs...), extractURLs(out.Feedback)...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		if !allowed[u] {
			return nil, fmt.Errorf("cited URL %q is not among the search results", u)
		}
		seen[u] = true
		cited = append(cited, u)
	}
	return cited, nil
}
