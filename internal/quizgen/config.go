package quizgen

import "fmt"

// Config controls the Draft-Critique-Refine pipeline.
type Config struct {
	// ItemCount is the exact number of items in every generated quiz.
	ItemCount int

	// MaxTokens is the token budget for each LLM response.
	MaxTokens int

	// Temperature applies to the draft call. Critique and refinement run
	// at CritiqueTemperature.
	Temperature         float64
	CritiqueTemperature float64

	// MaxRecentQuestions caps how many prior questions go into the
	// de-duplication digest.
	MaxRecentQuestions int
}

// DefaultConfig returns the recommended pipeline settings.
func DefaultConfig() Config {
	return Config{
		ItemCount:           5,
		MaxTokens:           4096,
		Temperature:         0.7,
		CritiqueTemperature: 0.2,
		MaxRecentQuestions:  20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ItemCount < 1 {
		return fmt.Errorf("quizgen: item count must be at least 1, got %d", c.ItemCount)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("quizgen: max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 || c.CritiqueTemperature < 0 || c.CritiqueTemperature > 1 {
		return fmt.Errorf("quizgen: temperatures must be within [0, 1]")
	}
	return nil
}
