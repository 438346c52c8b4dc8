package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/search"
	"github.com/abhisek/lecsum/internal/telemetry"
)

// Purpose labels for the generation calls.
const (
	PurposeBatch  = "grade-batch"
	PurposeEnrich = "grade-enrich"
)

// Pipeline grades submissions in one batch call and enriches the feedback
// of every incorrect answer in parallel.
type Pipeline struct {
	provider llm.Provider
	searcher search.Searcher
	config   Config
	log      *zap.Logger
	rec      telemetry.Recorder
}

// New creates a Pipeline. searcher, log and rec may be nil; a nil searcher
// finds nothing.
func New(provider llm.Provider, searcher search.Searcher, cfg Config, log *zap.Logger, rec telemetry.Recorder) *Pipeline {
	if searcher == nil {
		searcher = search.Static(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		provider: provider,
		searcher: searcher,
		config:   cfg,
		log:      log.Named("grading"),
		rec:      telemetry.OrNop(rec),
	}
}

// Grade returns one result per submission, in submission order. Only the
// batch call can fail the pipeline; enrichment problems degrade to the
// fallback feedback.
func (p *Pipeline) Grade(ctx context.Context, subs []Submission) (*Result, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer("grading").Start(ctx, "grading.Grade")
	defer span.End()

	res := &Result{
		Results:   make([]quiz.GradeResult, len(subs)),
		Outcomes:  make([]Outcome, len(subs)),
		Citations: make([][]string, len(subs)),
	}
	if len(subs) == 0 {
		return res, nil
	}

	batch, err := p.batch(ctx, subs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	copy(res.Results, batch)

	var wg sync.WaitGroup
	for i := range res.Results {
		res.Outcomes[i] = OutcomeGraded
		if res.Results[i].IsCorrect {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fb, outcome, cites := p.enrich(ctx, i, subs[i])
			res.Results[i].Feedback = fb
			res.Outcomes[i] = outcome
			res.Citations[i] = cites
			p.rec.EnrichmentOutcome(string(outcome))
		}(i)
	}
	wg.Wait()

	correct := res.Correct()
	span.SetAttributes(attribute.Int("grading.total", len(subs)), attribute.Int("grading.correct", correct))
	p.rec.ObserveDuration("grading", time.Since(start))
	p.log.Info("graded",
		zap.Int("total", len(subs)),
		zap.Int("correct", correct),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) batch(ctx context.Context, subs []Submission) ([]quiz.GradeResult, error) {
	ctx = llm.WithPurpose(ctx, PurposeBatch)

	out, err := llm.GenerateStructured[batchOutput](ctx, p.provider, llm.Request{
		System:      batchSystemPrompt,
		Messages:    llm.UserMessage(buildBatchMessage(subs)),
		Schema:      batchSchema,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("batch grade: %w", err)
	}
	if len(out.Results) != len(subs) {
		return nil, &CountMismatchError{Got: len(out.Results), Want: len(subs)}
	}
	return out.Results, nil
}

// enrich produces feedback for one incorrect answer. It never fails: any
// problem, including a panic, yields the fallback message.
func (p *Pipeline) enrich(ctx context.Context, idx int, sub Submission) (feedback string, outcome Outcome, cites []string) {
	log := p.log.With(zap.Int("index", idx), zap.Int64("quiz_id", sub.Item.ID))
	fallback := func(reason string, err error) {
		log.Warn("enrichment fell back", zap.String("reason", reason), zap.Error(err))
		feedback, outcome, cites = fallbackFeedback(sub), OutcomeFallback, nil
	}
	defer func() {
		if v := recover(); v != nil {
			fallback("panic", fmt.Errorf("%v", v))
		}
	}()

	results := p.search(ctx, log, searchQuery(sub))

	ctx = llm.WithPurpose(ctx, PurposeEnrich)
	out, err := llm.GenerateStructured[enrichOutput](ctx, p.provider, llm.Request{
		System:      enrichSystemPrompt,
		Messages:    llm.UserMessage(buildEnrichMessage(sub, results)),
		Schema:      enrichSchema,
		MaxTokens:   p.config.EnrichMaxTokens,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		fallback("generation", err)
		return
	}
	if strings.TrimSpace(out.Feedback) == "" {
		fallback("empty feedback", nil)
		return
	}
	verified, err := checkCitations(out, results)
	if err != nil {
		fallback("citation", err)
		return
	}
	return out.Feedback, OutcomeEnriched, verified
}

type searchReply struct {
	results []search.Result
	err     error
}

// search runs one query bounded by SearchTimeout. Timeouts and failures
// return no results.
func (p *Pipeline) search(ctx context.Context, log *zap.Logger, query string) []search.Result {
	ctx, cancel := context.WithTimeout(ctx, p.config.SearchTimeout)
	defer cancel()

	ch := make(chan searchReply, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				ch <- searchReply{err: fmt.Errorf("search panic: %v", v)}
			}
		}()
		results, err := p.searcher.Search(ctx, query)
		ch <- searchReply{results: results, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				p.rec.SearchTimeout()
			}
			log.Warn("web search failed", zap.Error(r.err))
			return nil
		}
		if max := p.config.MaxSearchResults; max > 0 && len(r.results) > max {
			r.results = r.results[:max]
		}
		return r.results
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.rec.SearchTimeout()
		}
		log.Warn("web search abandoned", zap.Error(ctx.Err()))
		return nil
	}
}
