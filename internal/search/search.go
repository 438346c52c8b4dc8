// Package search looks up web references used to enrich grading feedback.
package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search. Implementations honour ctx cancellation;
// callers treat any error as "no results".
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Config selects and configures the search backend.
type Config struct {
	// Provider is "google" or "none".
	Provider string
	Google   GoogleConfig
}

// DefaultConfig returns a Config that disables search.
func DefaultConfig() Config {
	return Config{
		Provider: "none",
		Google: GoogleConfig{
			BaseURL: defaultGoogleBaseURL,
			Num:     5,
		},
	}
}

// Validate checks provider credentials.
func (c Config) Validate() error {
	switch c.Provider {
	case "none", "":
		return nil
	case "google":
		if c.Google.APIKey == "" || c.Google.CX == "" {
			return fmt.Errorf("search.google.api_key and search.google.cx are required for the google provider")
		}
		if c.Google.Num < 1 || c.Google.Num > 10 {
			return fmt.Errorf("search.google.num must be between 1 and 10, got %d", c.Google.Num)
		}
		return nil
	}
	return fmt.Errorf("unknown search provider: %q", c.Provider)
}

// New builds the configured Searcher.
func New(cfg Config) (Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "google" {
		return NewGoogleSearcher(cfg.Google), nil
	}
	return Static(nil), nil
}

// URLSet returns the set of result URLs.
func URLSet(results []Result) map[string]bool {
	set := make(map[string]bool, len(results))
	for _, r := range results {
		if r.URL != "" {
			set[r.URL] = true
		}
	}
	return set
}

// Format renders results as a numbered reference list for a prompt.
func Format(results []Result) string {
	if len(results) == 0 {
		return "(no search results)"
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			b.WriteString(r.Snippet)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
