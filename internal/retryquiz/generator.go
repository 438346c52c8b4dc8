package retryquiz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/telemetry"
)

// Purpose labels the per-question generation call.
const Purpose = "retry-variants"

// Group is the set of variants generated from one missed question.
type Group struct {
	OriginalID int64
	Items      []quiz.Item
}

// Generator expands missed questions into practice variants.
type Generator struct {
	provider llm.Provider
	config   Config
	log      *zap.Logger
	rec      telemetry.Recorder
}

// New creates a Generator. log and rec may be nil.
func New(provider llm.Provider, cfg Config, log *zap.Logger, rec telemetry.Recorder) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		provider: provider,
		config:   cfg,
		log:      log.Named("retryquiz"),
		rec:      telemetry.OrNop(rec),
	}
}

// Generate makes one call per original, concurrently, and returns the
// groups in input order. Any failed call fails the whole fan-out.
func (g *Generator) Generate(ctx context.Context, originals []quiz.Item) ([]Group, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer("retryquiz").Start(ctx, "retryquiz.Generate")
	defer span.End()

	groups := make([]Group, len(originals))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Concurrency)
	for i, orig := range originals {
		eg.Go(func() error {
			items, err := g.variants(ctx, orig)
			if err != nil {
				return fmt.Errorf("variants for quiz %d: %w", orig.ID, err)
			}
			groups[i] = Group{OriginalID: orig.ID, Items: items}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	g.rec.ObserveDuration("retryquiz", time.Since(start))
	g.log.Info("retry variants generated",
		zap.Int("originals", len(originals)),
		zap.Int("items", countItems(groups)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return groups, nil
}

func (g *Generator) variants(ctx context.Context, orig quiz.Item) ([]quiz.Item, error) {
	ctx = llm.WithPurpose(ctx, Purpose)

	out, err := llm.GenerateStructured[variantsOutput](ctx, g.provider, llm.Request{
		System:      systemPrompt,
		Messages:    buildMessages(orig, g.config.VariantsPerItem),
		Schema:      variantsSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, err
	}

	if len(out.Quizzes) != g.config.VariantsPerItem {
		g.rec.RetryVariantMismatch()
		g.log.Warn("unexpected variant count",
			zap.Int64("quiz_id", orig.ID),
			zap.Int("got", len(out.Quizzes)),
			zap.Int("want", g.config.VariantsPerItem),
		)
	}

	items := quiz.NormalizeAll(out.Quizzes)
	if err := quiz.ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

func countItems(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	return n
}
