package service

import (
	"errors"

	"github.com/abhisek/lecsum/internal/grading"
	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/store"
)

var (
	// ErrNotFound is returned when a referenced document, quiz, set or
	// attempt does not exist. It is the store's sentinel.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidRequest is returned when a request fails validation.
	ErrInvalidRequest = errors.New("invalid request")
)

// Category groups errors by how a caller should react to them.
type Category string

const (
	// CategoryNotFound and CategoryInvalidRequest are caller mistakes.
	CategoryNotFound       Category = "not_found"
	CategoryInvalidRequest Category = "invalid_request"

	// CategoryContract means an upstream generation returned something
	// that breaks its output contract.
	CategoryContract Category = "contract_violation"

	// CategoryUpstream means a generation call itself failed.
	CategoryUpstream Category = "upstream_failure"

	// CategoryInternal covers everything else, including rolled-back
	// transactions.
	CategoryInternal Category = "internal"
)

// Classify maps an error returned by the Service to its Category.
func Classify(err error) Category {
	var (
		invalid   *llm.ErrInvalidResponse
		truncated *llm.ErrMaxTokensExceeded
		verr      *quiz.ValidationError
		genErr    *llm.GenerationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInvalidRequest):
		return CategoryInvalidRequest
	case errors.Is(err, grading.ErrGradingCountMismatch),
		errors.As(err, &invalid),
		errors.As(err, &truncated),
		errors.As(err, &verr):
		return CategoryContract
	case errors.As(err, &genErr):
		return CategoryUpstream
	default:
		return CategoryInternal
	}
}
