package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// GenerateStructured runs req (which must carry a Schema) and decodes the
// validated JSON into T. Every failure is wrapped in *GenerationError; a
// payload that cannot be coerced into T surfaces as *ErrInvalidResponse.
func GenerateStructured[T any](ctx context.Context, p Provider, req Request) (T, error) {
	var out T
	purpose := PurposeFrom(ctx)

	if req.Schema == nil {
		return out, &GenerationError{Purpose: purpose, Err: fmt.Errorf("structured generation requires a schema")}
	}

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return out, &GenerationError{Purpose: purpose, Err: err}
	}
	if resp.StopReason == "max_tokens" {
		return out, &GenerationError{Purpose: purpose, Err: &ErrMaxTokensExceeded{Content: resp.Content}}
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Content))
	if err := dec.Decode(&out); err != nil {
		return out, &GenerationError{
			Purpose: purpose,
			Err:     &ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("decode %s: %w", req.Schema.Name, err)},
		}
	}
	return out, nil
}

// GenerateText runs a free-text request and returns the model's text.
func GenerateText(ctx context.Context, p Provider, req Request) (string, error) {
	purpose := PurposeFrom(ctx)
	req.Schema = nil

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return "", &GenerationError{Purpose: purpose, Err: err}
	}
	return string(resp.Content), nil
}
