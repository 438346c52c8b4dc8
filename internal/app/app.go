// Package app wires configuration into a ready Service.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/lecsum/internal/config"
	"github.com/abhisek/lecsum/internal/grading"
	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/logging"
	"github.com/abhisek/lecsum/internal/quizgen"
	"github.com/abhisek/lecsum/internal/retryquiz"
	"github.com/abhisek/lecsum/internal/search"
	"github.com/abhisek/lecsum/internal/service"
	"github.com/abhisek/lecsum/internal/store"
	"github.com/abhisek/lecsum/internal/telemetry"
)

// Options override what New would otherwise build from config.
type Options struct {
	Log      *zap.Logger
	Provider llm.Provider
	Searcher search.Searcher
}

// App holds the long-lived dependencies of one CLI invocation.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Store   *store.Store
	Metrics *telemetry.Metrics
	Service *service.Service

	// LLMErr is non-nil when no provider could be built. Commands that
	// need generation report it; everything else still works.
	LLMErr error

	stopTracing func(context.Context) error
}

// New opens the store and builds the provider, searcher, pipelines and
// service.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Log
	if log == nil {
		var err error
		if log, err = logging.New(cfg.Logging); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{Config: cfg, Log: log, Store: st, Metrics: telemetry.NewMetrics()}

	if cfg.Tracing.Enabled {
		stop, err := telemetry.InitTracer("lecsum", cfg.Tracing.Endpoint)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.stopTracing = stop
	}

	provider := opts.Provider
	if provider == nil {
		provider, a.LLMErr = buildProvider(ctx, cfg.LLM, st.EventRepo(), log)
		if a.LLMErr != nil {
			log.Warn("LLM provider not configured; generation and grading are unavailable", zap.Error(a.LLMErr))
			provider = unavailable{err: a.LLMErr}
		}
	}

	searcher := opts.Searcher
	if searcher == nil {
		if searcher, err = search.New(cfg.Search); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("build searcher: %w", err)
		}
	}

	a.Service = service.New(service.Deps{
		Documents: st.Documents(),
		Quizzes:   st.Quizzes(),
		Attempts:  st.Attempts(),
		Retries:   st.Retries(),
		QuizGen:   quizgen.New(provider, cfg.QuizGen, log, a.Metrics),
		Grader:    grading.New(provider, searcher, cfg.Grading, log, a.Metrics),
		Retry:     retryquiz.New(provider, cfg.Retry, log, a.Metrics),
		Log:       log,
	}, service.Config{RecentQuestions: cfg.QuizGen.MaxRecentQuestions})

	return a, nil
}

func buildProvider(ctx context.Context, cfg llm.Config, events llm.EventRecorder, log *zap.Logger) (llm.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return llm.NewProvider(ctx, cfg, events, log)
}

// Close pushes metrics when a Pushgateway is configured, flushes spans and
// closes the store. Every step runs even if an earlier one fails.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if url := a.Config.Metrics.PushgatewayURL; url != "" {
		if err := a.Metrics.Push(url, a.Config.Metrics.Job); err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}
	if a.stopTracing != nil {
		if err := a.stopTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	_ = a.Log.Sync()
	return errors.Join(errs...)
}

// unavailable stands in for a provider that could not be configured.
type unavailable struct {
	err error
}

func (u unavailable) Generate(context.Context, llm.Request) (*llm.Response, error) {
	return nil, &llm.ErrProviderUnavailable{Err: u.err}
}

func (unavailable) ModelID() string { return "" }

// RequireLLM returns the provider configuration error, if any, in a form
// suited to a command that needs generation.
func (a *App) RequireLLM() error {
	if a.LLMErr == nil {
		return nil
	}
	return errors.Join(errors.New("an LLM provider is required for this command"), a.LLMErr)
}
