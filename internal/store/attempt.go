package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lecsum/internal/quiz"
)

type attemptRepo struct {
	s *Store
}

type attemptRow struct {
	ID         int64     `sql:"id"`
	QuizSetID  *int64    `sql:"quiz_set_id"`
	RetrySetID *int64    `sql:"retry_set_id"`
	Score      int       `sql:"score"`
	Total      int       `sql:"total"`
	Correct    int       `sql:"correct"`
	CreatedAt  time.Time `sql:"created_at"`
}

func (r attemptRow) toAttempt() quiz.Attempt {
	a := quiz.Attempt{
		ID:        r.ID,
		Score:     r.Score,
		Total:     r.Total,
		Correct:   r.Correct,
		CreatedAt: r.CreatedAt,
	}
	switch {
	case r.RetrySetID != nil:
		a.Target = quiz.Retry{RetrySetID: *r.RetrySetID}
	case r.QuizSetID != nil:
		a.Target = quiz.Original{QuizSetID: *r.QuizSetID}
	}
	return a
}

var attemptColumns = []string{"id", "quiz_set_id", "retry_set_id", "score", "total", "correct", "created_at"}

func (r *attemptRepo) SaveAttempt(ctx context.Context, target quiz.AttemptTarget, results []quiz.AttemptResult) (*quiz.Attempt, error) {
	now := time.Now().UTC()
	attempt := &quiz.Attempt{Target: target, Total: len(results), CreatedAt: now}
	for _, res := range results {
		if res.IsCorrect {
			attempt.Correct++
		}
	}
	attempt.Score = quiz.Score(attempt.Correct, attempt.Total)

	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		ins := r.s.builder().Insert(attemptsTable.Name).
			Set("score", 0).
			Set("total", 0).
			Set("correct", 0).
			Set("created_at", now)
		switch t := target.(type) {
		case quiz.Original:
			ins.Set("quiz_set_id", t.QuizSetID)
		case quiz.Retry:
			ins.Set("retry_set_id", t.RetrySetID)
		default:
			return fmt.Errorf("unsupported attempt target %T", target)
		}
		id, err := insertID(ctx, tx, ins)
		if err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		attempt.ID = id

		for i, res := range results {
			_, err := insertID(ctx, tx, r.s.builder().Insert(quizResultsTable.Name).
				Set("attempt_id", id).
				Set("quiz_id", res.QuizID).
				Set("user_answer", res.UserAnswer).
				Set("is_correct", res.IsCorrect).
				Set("feedback", res.Feedback).
				Set("created_at", now))
			if err != nil {
				return fmt.Errorf("create result %d: %w", i+1, err)
			}
		}

		upd := r.s.builder().Update(attemptsTable.Name).
			Set("score", attempt.Score).
			Set("total", attempt.Total).
			Set("correct", attempt.Correct).
			Where(entsql.EQ("id", id))
		if err := execQuery(ctx, tx, upd); err != nil {
			return fmt.Errorf("update attempt score: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	attempt.Results = append([]quiz.AttemptResult(nil), results...)
	return attempt, nil
}

func (r *attemptRepo) GetAttempt(ctx context.Context, id int64) (*quiz.Attempt, error) {
	var rows []attemptRow
	sel := r.s.builder().Select(attemptColumns...).
		From(r.s.table(attemptsTable.Name, "")).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("get attempt %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("attempt %d: %w", id, ErrNotFound)
	}
	attempt := rows[0].toAttempt()

	res := r.s.table(quizResultsTable.Name, "r")
	q := r.s.table(quizzesTable.Name, "q")
	rsel := r.s.builder().Select(
		res.C("quiz_id"), q.C("question"), res.C("user_answer"), res.C("is_correct"), res.C("feedback"),
	).From(res).Join(q).On(res.C("quiz_id"), q.C("id")).
		Where(entsql.EQ(res.C("attempt_id"), id)).
		OrderBy(res.C("id"))
	var results []struct {
		QuizID     int64  `sql:"quiz_id"`
		Question   string `sql:"question"`
		UserAnswer string `sql:"user_answer"`
		IsCorrect  bool   `sql:"is_correct"`
		Feedback   string `sql:"feedback"`
	}
	if err := scanAll(ctx, r.s.drv, rsel, &results); err != nil {
		return nil, fmt.Errorf("get results of attempt %d: %w", id, err)
	}
	attempt.Results = make([]quiz.AttemptResult, len(results))
	for i, row := range results {
		attempt.Results[i] = quiz.AttemptResult(row)
	}
	return &attempt, nil
}

func (r *attemptRepo) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]quiz.Attempt, error) {
	sel := r.s.builder().Select(attemptColumns...).
		From(r.s.table(attemptsTable.Name, "")).
		OrderBy(r.s.desc("id"))
	if opts.RetryOnly {
		sel.Where(entsql.NotNull("retry_set_id"))
	}
	page(sel, opts.PageOpts)

	var rows []attemptRow
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]quiz.Attempt, len(rows))
	for i, row := range rows {
		out[i] = row.toAttempt()
	}
	return out, nil
}

type wrongAnswerRow struct {
	ResultID     int64     `sql:"result_id"`
	AttemptID    int64     `sql:"attempt_id"`
	UserAnswer   string    `sql:"user_answer"`
	Feedback     string    `sql:"feedback"`
	CreatedAt    time.Time `sql:"created_at"`
	DocumentName string    `sql:"document_name"`

	QuizID        int64  `sql:"id"`
	QuizSetID     int64  `sql:"quiz_set_id"`
	DocumentID    int64  `sql:"document_id"`
	Number        int    `sql:"number"`
	Type          string `sql:"type"`
	Question      string `sql:"question"`
	Options       string `sql:"options"`
	CorrectAnswer string `sql:"correct_answer"`
	Explanation   string `sql:"explanation"`
}

func (r wrongAnswerRow) quiz() quizRow {
	return quizRow{
		ID:            r.QuizID,
		QuizSetID:     r.QuizSetID,
		DocumentID:    r.DocumentID,
		Number:        r.Number,
		Type:          r.Type,
		Question:      r.Question,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
	}
}

func (r *attemptRepo) WrongAnswers(ctx context.Context, opts WrongAnswerOpts) ([]WrongAnswer, error) {
	res := r.s.table(quizResultsTable.Name, "r")
	q := r.s.table(quizzesTable.Name, "q")
	qs := r.s.table(quizSetsTable.Name, "qs")
	d := r.s.table(documentsTable.Name, "d")

	sel := r.s.builder().Select(
		entsql.As(res.C("id"), "result_id"), res.C("attempt_id"), res.C("user_answer"),
		res.C("feedback"), res.C("created_at"), entsql.As(d.C("name"), "document_name"),
		q.C("id"), q.C("quiz_set_id"), qs.C("document_id"), q.C("number"), q.C("type"),
		q.C("question"), q.C("options"), q.C("correct_answer"), q.C("explanation"),
	).From(res).
		Join(q).On(res.C("quiz_id"), q.C("id")).
		Join(qs).On(q.C("quiz_set_id"), qs.C("id")).
		Join(d).On(qs.C("document_id"), d.C("id")).
		Where(entsql.EQ(res.C("is_correct"), false)).
		OrderBy(r.s.desc(res.C("id")))
	if opts.DocumentID != 0 {
		sel.Where(entsql.EQ(d.C("id"), opts.DocumentID))
	}
	page(sel, opts.PageOpts)

	var rows []wrongAnswerRow
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("list wrong answers: %w", err)
	}
	out := make([]WrongAnswer, len(rows))
	for i, row := range rows {
		sq, err := row.quiz().toStored()
		if err != nil {
			return nil, err
		}
		out[i] = WrongAnswer{
			ResultID:     row.ResultID,
			AttemptID:    row.AttemptID,
			Quiz:         sq,
			DocumentName: row.DocumentName,
			UserAnswer:   row.UserAnswer,
			Feedback:     row.Feedback,
			CreatedAt:    row.CreatedAt,
		}
	}
	return out, nil
}

func (r *attemptRepo) LatestAttemptForQuiz(ctx context.Context, quizID int64) (int64, error) {
	sel := r.s.builder().Select("attempt_id").
		From(r.s.table(quizResultsTable.Name, "")).
		Where(entsql.EQ("quiz_id", quizID)).
		OrderBy(r.s.desc("attempt_id")).
		Limit(1)
	var rows []struct {
		AttemptID int64 `sql:"attempt_id"`
	}
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return 0, fmt.Errorf("latest attempt for quiz %d: %w", quizID, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no attempt for quiz %d: %w", quizID, ErrNotFound)
	}
	return rows[0].AttemptID, nil
}
