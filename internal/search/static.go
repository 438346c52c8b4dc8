package search

import "context"

// Static returns a fixed result list for every query. A nil list makes a
// searcher that finds nothing.
type Static []Result

func (s Static) Search(ctx context.Context, _ string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Result, len(s))
	copy(out, s)
	return out, nil
}

// Func adapts a function to the Searcher interface.
type Func func(ctx context.Context, query string) ([]Result, error)

func (f Func) Search(ctx context.Context, query string) ([]Result, error) {
	return f(ctx, query)
}
