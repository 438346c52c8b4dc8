package retryquiz

import "fmt"

// Config controls the retry fan-out.
type Config struct {
	// VariantsPerItem is how many new questions are requested for each
	// missed question.
	VariantsPerItem int

	// Concurrency bounds the number of generation calls in flight.
	Concurrency int

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended settings.
func DefaultConfig() Config {
	return Config{
		VariantsPerItem: 3,
		Concurrency:     4,
		MaxTokens:       2048,
		Temperature:     0.7,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.VariantsPerItem < 1 {
		return fmt.Errorf("retryquiz: variants per item must be at least 1, got %d", c.VariantsPerItem)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("retryquiz: concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("retryquiz: max tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}
