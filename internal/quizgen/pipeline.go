package quizgen

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/telemetry"
)

// Purpose labels for the three generation calls.
const (
	PurposeDraft    = "quiz-draft"
	PurposeCritique = "quiz-critique"
	PurposeRefine   = "quiz-refine"
)

// Pipeline drafts a quiz, has it critiqued, and refines the items the
// critique flags.
type Pipeline struct {
	provider llm.Provider
	config   Config
	log      *zap.Logger
	rec      telemetry.Recorder
}

// New creates a Pipeline. log and rec may be nil.
func New(provider llm.Provider, cfg Config, log *zap.Logger, rec telemetry.Recorder) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		provider: provider,
		config:   cfg,
		log:      log.Named("quizgen"),
		rec:      telemetry.OrNop(rec),
	}
}

// Generate runs draft, critique and (when needed) refinement. Any call
// failure fails the whole run; no partial quiz is returned.
func (p *Pipeline) Generate(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer("quizgen").Start(ctx, "quizgen.Generate")
	defer span.End()

	digest := buildDigest(in.RecentQuestions, p.config.MaxRecentQuestions)

	draft, err := p.draft(ctx, in.Context, digest)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	critique, err := p.critique(ctx, in.Context, draft)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	verdict := Verdict(critique)
	p.rec.CritiqueVerdict(verdict)
	span.SetAttributes(attribute.String("critique.verdict", verdict))

	res := &Result{Items: draft, Critique: critique}
	if c, ok := critique.(Corrections); ok {
		refined, err := p.refine(ctx, in.Context, draft, c.Fixes)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		res.Items, res.Revised = mergeFixes(draft, refined, c.Fixes)
	}

	res.Items = quiz.NormalizeAll(res.Items)
	if err := quiz.ValidateItems(res.Items); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("generated quiz: %w", err)
	}

	p.rec.ObserveDuration("quizgen", time.Since(start))
	p.log.Info("quiz generated",
		zap.Int("items", len(res.Items)),
		zap.String("verdict", verdict),
		zap.Ints("revised", res.Revised),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) draft(ctx context.Context, material, digest string) ([]quiz.Item, error) {
	ctx = llm.WithPurpose(ctx, PurposeDraft)

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: buildDraftMessage(draftExampleContext, NoneYet)},
		{Role: llm.RoleAssistant, Content: draftExampleOutput},
		{Role: llm.RoleUser, Content: buildDraftMessage(material, digest)},
	}
	out, err := llm.GenerateStructured[quizOutput](ctx, p.provider, llm.Request{
		System:      fmt.Sprintf(draftSystemPrompt, p.config.ItemCount),
		Messages:    msgs,
		Schema:      quizSchema("quiz-draft", "A drafted quiz", p.config.ItemCount),
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("draft quiz: %w", err)
	}
	if err := p.checkCount(out.Quizzes); err != nil {
		return nil, fmt.Errorf("draft quiz: %w", err)
	}
	return quiz.NormalizeAll(out.Quizzes), nil
}

func (p *Pipeline) critique(ctx context.Context, material string, draft []quiz.Item) (Critique, error) {
	ctx = llm.WithPurpose(ctx, PurposeCritique)

	out, err := llm.GenerateStructured[critiqueOutput](ctx, p.provider, llm.Request{
		System:      critiqueSystemPrompt,
		Messages:    llm.UserMessage(buildCritiqueMessage(material, draft)),
		Schema:      critiqueSchema(p.config.ItemCount),
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.CritiqueTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("critique quiz: %w", err)
	}
	return out.critique(), nil
}

func (p *Pipeline) refine(ctx context.Context, material string, draft []quiz.Item, fixes []ItemFix) ([]quiz.Item, error) {
	ctx = llm.WithPurpose(ctx, PurposeRefine)

	out, err := llm.GenerateStructured[quizOutput](ctx, p.provider, llm.Request{
		System:      refineSystemPrompt,
		Messages:    llm.UserMessage(buildRefineMessage(material, draft, fixes)),
		Schema:      quizSchema("quiz-refine", "The corrected quiz", p.config.ItemCount),
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.CritiqueTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("refine quiz: %w", err)
	}
	if err := p.checkCount(out.Quizzes); err != nil {
		return nil, fmt.Errorf("refine quiz: %w", err)
	}
	return quiz.NormalizeAll(out.Quizzes), nil
}

func (p *Pipeline) checkCount(items []quiz.Item) error {
	if len(items) != p.config.ItemCount {
		return &quiz.ValidationError{
			Position: -1,
			Message:  fmt.Sprintf("got %d items, want %d", len(items), p.config.ItemCount),
		}
	}
	return nil
}

// mergeFixes takes the refined item at every position named by a fix and
// the draft item everywhere else. It returns the merged quiz and the sorted
// revised positions.
func mergeFixes(draft, refined []quiz.Item, fixes []ItemFix) ([]quiz.Item, []int) {
	merged := make([]quiz.Item, len(draft))
	copy(merged, draft)

	seen := make(map[int]bool, len(fixes))
	var revised []int
	for _, f := range fixes {
		if f.Index < 0 || f.Index >= len(draft) || f.Index >= len(refined) || seen[f.Index] {
			continue
		}
		seen[f.Index] = true
		merged[f.Index] = refined[f.Index]
		revised = append(revised, f.Index)
	}
	sort.Ints(revised)
	return merged, revised
}
