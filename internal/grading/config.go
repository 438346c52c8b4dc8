package grading

import (
	"fmt"
	"time"
)

// Config controls the Grading-Enrichment pipeline.
type Config struct {
	// MaxTokens is the token budget for the batch grading response.
	MaxTokens int

	// EnrichMaxTokens is the token budget for each enrichment response.
	EnrichMaxTokens int

	Temperature float64

	// SearchTimeout bounds each enrichment task's web search.
	SearchTimeout time.Duration

	// MaxSearchResults caps the results shown to the enrichment call.
	MaxSearchResults int
}

// DefaultConfig returns the recommended pipeline settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        4096,
		EnrichMaxTokens:  1024,
		Temperature:      0.2,
		SearchTimeout:    7 * time.Second,
		MaxSearchResults: 5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxTokens < 1 || c.EnrichMaxTokens < 1 {
		return fmt.Errorf("grading: max tokens must be positive")
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("grading: search timeout must be positive, got %s", c.SearchTimeout)
	}
	if c.MaxSearchResults < 0 {
		return fmt.Errorf("grading: max search results must not be negative")
	}
	return nil
}
