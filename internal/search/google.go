package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const defaultGoogleBaseURL = "https://www.googleapis.com/customsearch/v1"

// GoogleConfig configures the Custom Search JSON API client.
type GoogleConfig struct {
	APIKey string
	CX     string

	// BaseURL overrides the endpoint, mainly for tests.
	BaseURL string

	// Num is the result count per query (1-10).
	Num int

	// Language sets the hl parameter when non-empty.
	Language string
}

// GoogleSearcher queries Google Custom Search.
type GoogleSearcher struct {
	client *resty.Client
	cfg    GoogleConfig
}

// NewGoogleSearcher creates a searcher. The client never retries; the
// caller's context carries the deadline.
func NewGoogleSearcher(cfg GoogleConfig) *GoogleSearcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGoogleBaseURL
	}
	if cfg.Num == 0 {
		cfg.Num = 5
	}
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &GoogleSearcher{client: client, cfg: cfg}
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	params := map[string]string{
		"key": g.cfg.APIKey,
		"cx":  g.cfg.CX,
		"q":   query,
		"num": strconv.Itoa(g.cfg.Num),
	}
	if g.cfg.Language != "" {
		params["hl"] = g.cfg.Language
	}

	var body googleResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get(g.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("google search: status %d", resp.StatusCode())
	}

	results := make([]Result, 0, len(body.Items))
	for _, it := range body.Items {
		if it.Link == "" {
			continue
		}
		results = append(results, Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return results, nil
}
