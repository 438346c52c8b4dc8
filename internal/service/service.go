package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/abhisek/lecsum/internal/grading"
	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/quizgen"
	"github.com/abhisek/lecsum/internal/retryquiz"
	"github.com/abhisek/lecsum/internal/store"
)

// QuizGenerator produces a quiz from source material.
type QuizGenerator interface {
	Generate(ctx context.Context, in quizgen.Input) (*quizgen.Result, error)
}

// Grader grades submissions in order.
type Grader interface {
	Grade(ctx context.Context, subs []grading.Submission) (*grading.Result, error)
}

// RetryGenerator expands missed questions into practice variants.
type RetryGenerator interface {
	Generate(ctx context.Context, originals []quiz.Item) ([]retryquiz.Group, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Documents store.DocumentRepo
	Quizzes   store.QuizRepo
	Attempts  store.AttemptRepo
	Retries   store.RetryRepo

	QuizGen QuizGenerator
	Grader  Grader
	Retry   RetryGenerator

	Log *zap.Logger
}

// Config tunes the service.
type Config struct {
	// RecentQuestions is how many prior questions of a document feed the
	// de-duplication digest when the caller supplies none.
	RecentQuestions int
}

// DefaultConfig returns the recommended settings.
func DefaultConfig() Config {
	return Config{RecentQuestions: 20}
}

// Service handles inbound requests: it resolves ids, runs the pipelines
// and persists their fully assembled output.
type Service struct {
	deps     Deps
	config   Config
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a Service.
func New(deps Deps, cfg Config) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		deps:     deps,
		config:   cfg,
		log:      log.Named("service"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	fe := verrs[0]
	switch fe.Tag() {
	case "eqfield":
		return fmt.Sprintf("%s must have as many entries as %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be a positive id", fe.Field())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// AddDocument stores source material.
func (s *Service) AddDocument(ctx context.Context, req AddDocumentRequest) (*store.Document, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.deps.Documents.Create(ctx, req.Name, req.Content)
}

// ListDocuments returns documents newest first.
func (s *Service) ListDocuments(ctx context.Context, opts store.PageOpts) ([]store.Document, error) {
	return s.deps.Documents.List(ctx, opts)
}

// GenerateQuiz runs the Draft-Critique-Refine pipeline over a document and
// persists the result as a new quiz set.
func (s *Service) GenerateQuiz(ctx context.Context, req GenerateQuizRequest) (*QuizResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	doc, err := s.deps.Documents.Get(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	recent := req.RecentDigest
	if len(recent) == 0 {
		if recent, err = s.deps.Quizzes.RecentQuestions(ctx, doc.ID, s.config.RecentQuestions); err != nil {
			return nil, err
		}
	}

	res, err := s.deps.QuizGen.Generate(ctx, quizgen.Input{Context: doc.Content, RecentQuestions: recent})
	if err != nil {
		return nil, fmt.Errorf("generate quiz for document %d: %w", doc.ID, err)
	}

	set, err := s.deps.Quizzes.CreateQuizSet(ctx, doc.ID, res.Items)
	if err != nil {
		return nil, err
	}
	s.log.Info("quiz set created", zap.Int64("quiz_set_id", set.ID), zap.Int64("document_id", doc.ID))
	return &QuizResponse{Set: set, Verdict: quizgen.Verdict(res.Critique), Revised: res.Revised}, nil
}

// GetQuizSet returns a stored quiz set.
func (s *Service) GetQuizSet(ctx context.Context, id int64) (*quiz.Set, error) {
	return s.deps.Quizzes.GetQuizSet(ctx, id)
}

// Grade grades answers to questions of an original quiz set.
func (s *Service) Grade(ctx context.Context, req GradeRequest) (*GradeResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.grade(ctx, quiz.Original{QuizSetID: req.QuizSetID}, req.QuizSetID, req.QuestionIDs, req.Answers)
}

// GradeRetry grades answers to questions of a retry set.
func (s *Service) GradeRetry(ctx context.Context, req RetryGradeRequest) (*GradeResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	rs, err := s.deps.Retries.GetRetrySet(ctx, req.RetrySetID)
	if err != nil {
		return nil, err
	}
	return s.grade(ctx, quiz.Retry{RetrySetID: rs.ID}, rs.QuizSetID, req.QuestionIDs, req.Answers)
}

// grade resolves ids in request order, runs the pipeline and persists the
// attempt. Nothing is written unless grading completes.
func (s *Service) grade(ctx context.Context, target quiz.AttemptTarget, quizSetID int64, ids []int64, answers []string) (*GradeResponse, error) {
	stored, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	subs := make([]grading.Submission, len(stored))
	for i, q := range stored {
		if q.QuizSetID != quizSetID {
			return nil, fmt.Errorf("quiz %d is not part of %s: %w", q.ID, target, ErrNotFound)
		}
		subs[i] = grading.Submission{Item: q.Item, Answer: answers[i]}
	}

	res, err := s.deps.Grader.Grade(ctx, subs)
	if err != nil {
		return nil, fmt.Errorf("grade %s: %w", target, err)
	}

	rows := make([]quiz.AttemptResult, len(subs))
	views := make([]ResultView, len(subs))
	for i, sub := range subs {
		r := res.Results[i]
		rows[i] = quiz.AttemptResult{
			QuizID:     sub.Item.ID,
			Question:   sub.Item.Question,
			UserAnswer: sub.Answer,
			IsCorrect:  r.IsCorrect,
			Feedback:   r.Feedback,
		}
		views[i] = ResultView{
			QuizID:        sub.Item.ID,
			Question:      sub.Item.Question,
			UserAnswer:    sub.Answer,
			CorrectAnswer: sub.Item.CorrectAnswer,
			IsCorrect:     r.IsCorrect,
			Feedback:      r.Feedback,
			Outcome:       res.Outcomes[i],
			Citations:     res.Citations[i],
		}
	}

	attempt, err := s.deps.Attempts.SaveAttempt(ctx, target, rows)
	if err != nil {
		return nil, fmt.Errorf("save attempt for %s: %w", target, err)
	}
	s.log.Info("attempt saved",
		zap.Int64("attempt_id", attempt.ID),
		zap.Stringer("target", target),
		zap.Int("score", attempt.Score),
	)
	return &GradeResponse{
		AttemptID: attempt.ID,
		Score:     attempt.Score,
		Correct:   attempt.Correct,
		Total:     attempt.Total,
		Results:   views,
	}, nil
}

// resolve loads quizzes by id, preserving request order. Any unknown id
// fails with ErrNotFound.
func (s *Service) resolve(ctx context.Context, ids []int64) ([]store.StoredQuiz, error) {
	byID, err := s.deps.Quizzes.GetQuizzes(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]store.StoredQuiz, len(ids))
	for i, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("quiz %d: %w", id, ErrNotFound)
		}
		out[i] = q
	}
	return out, nil
}

// CreateRetry generates practice variants for missed questions and
// persists them as a retry set. The set is linked to the latest attempt
// containing the first selected question and belongs to that question's
// document.
func (s *Service) CreateRetry(ctx context.Context, req CreateRetryRequest) (*RetryResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	stored, err := s.resolve(ctx, dedupe(req.QuestionIDs))
	if err != nil {
		return nil, err
	}

	attemptID, err := s.deps.Attempts.LatestAttemptForQuiz(ctx, stored[0].ID)
	if err != nil {
		return nil, err
	}

	originals := make([]quiz.Item, len(stored))
	for i, q := range stored {
		originals[i] = q.Item
	}
	groups, err := s.deps.Retry.Generate(ctx, originals)
	if err != nil {
		return nil, fmt.Errorf("generate retry quiz: %w", err)
	}

	repoGroups := make([]store.RetryGroup, len(groups))
	for i, g := range groups {
		repoGroups[i] = store.RetryGroup{OriginalQuizID: g.OriginalID, Items: g.Items}
	}
	rs, set, err := s.deps.Retries.SaveRetrySet(ctx, stored[0].DocumentID, attemptID, repoGroups)
	if err != nil {
		return nil, err
	}

	items := make([]RetryItemView, len(rs.Items))
	for i, link := range rs.Items {
		items[i] = RetryItemView{Item: set.Items[i], OriginalQuizID: link.OriginalQuizID, Position: link.Position}
	}
	s.log.Info("retry set created",
		zap.Int64("retry_set_id", rs.ID),
		zap.Int64("original_attempt_id", attemptID),
		zap.Int("questions", len(items)),
	)
	return &RetryResponse{
		RetrySetID:        rs.ID,
		QuizSetID:         set.ID,
		OriginalAttemptID: attemptID,
		TotalQuestions:    len(items),
		Items:             items,
	}, nil
}

// GetRetry returns a stored retry set with its questions.
func (s *Service) GetRetry(ctx context.Context, id int64) (*RetryResponse, error) {
	rs, err := s.deps.Retries.GetRetrySet(ctx, id)
	if err != nil {
		return nil, err
	}
	set, err := s.deps.Quizzes.GetQuizSet(ctx, rs.QuizSetID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]quiz.Item, len(set.Items))
	for _, it := range set.Items {
		byID[it.ID] = it
	}
	items := make([]RetryItemView, len(rs.Items))
	for i, link := range rs.Items {
		items[i] = RetryItemView{Item: byID[link.QuizID], OriginalQuizID: link.OriginalQuizID, Position: link.Position}
	}
	return &RetryResponse{
		RetrySetID:        rs.ID,
		QuizSetID:         rs.QuizSetID,
		OriginalAttemptID: rs.OriginalAttemptID,
		TotalQuestions:    len(items),
		Items:             items,
	}, nil
}

// ListWrongAnswers returns incorrect results newest first.
func (s *Service) ListWrongAnswers(ctx context.Context, opts store.WrongAnswerOpts) ([]store.WrongAnswer, error) {
	return s.deps.Attempts.WrongAnswers(ctx, opts)
}

// ListAttempts returns attempts newest first.
func (s *Service) ListAttempts(ctx context.Context, opts store.AttemptListOpts) ([]quiz.Attempt, error) {
	return s.deps.Attempts.ListAttempts(ctx, opts)
}

// GetAttempt returns an attempt with its per-question results.
func (s *Service) GetAttempt(ctx context.Context, id int64) (*quiz.Attempt, error) {
	return s.deps.Attempts.GetAttempt(ctx, id)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
