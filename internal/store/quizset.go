package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lecsum/internal/quiz"
)

type quizRepo struct {
	s *Store
}

type quizRow struct {
	ID            int64  `sql:"id"`
	QuizSetID     int64  `sql:"quiz_set_id"`
	DocumentID    int64  `sql:"document_id"`
	Number        int    `sql:"number"`
	Type          string `sql:"type"`
	Question      string `sql:"question"`
	Options       string `sql:"options"`
	CorrectAnswer string `sql:"correct_answer"`
	Explanation   string `sql:"explanation"`
}

func (r quizRow) toStored() (StoredQuiz, error) {
	var opts []string
	if r.Options != "" {
		if err := json.Unmarshal([]byte(r.Options), &opts); err != nil {
			return StoredQuiz{}, fmt.Errorf("decode options of quiz %d: %w", r.ID, err)
		}
	}
	if opts == nil {
		opts = []string{}
	}
	return StoredQuiz{
		Item: quiz.Item{
			ID:            r.ID,
			Question:      r.Question,
			Type:          quiz.ItemType(r.Type),
			Options:       opts,
			CorrectAnswer: r.CorrectAnswer,
			Explanation:   r.Explanation,
		},
		QuizSetID:  r.QuizSetID,
		DocumentID: r.DocumentID,
		Number:     r.Number,
	}, nil
}

// selectQuizzes selects quiz rows joined with their owning set.
func (s *Store) selectQuizzes() (sel *entsql.Selector, q, qs *entsql.SelectTable) {
	q = s.table(quizzesTable.Name, "q")
	qs = s.table(quizSetsTable.Name, "qs")
	sel = s.builder().Select(
		q.C("id"), q.C("quiz_set_id"), qs.C("document_id"), q.C("number"), q.C("type"),
		q.C("question"), q.C("options"), q.C("correct_answer"), q.C("explanation"),
	).From(q).Join(qs).On(q.C("quiz_set_id"), qs.C("id"))
	return sel, q, qs
}

func (r *quizRepo) CreateQuizSet(ctx context.Context, documentID int64, items []quiz.Item) (*quiz.Set, error) {
	var set *quiz.Set
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		set, err = r.s.insertQuizSet(ctx, tx, documentID, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// insertQuizSet writes a set and its items inside tx.
func (s *Store) insertQuizSet(ctx context.Context, tx dialect.ExecQuerier, documentID int64, items []quiz.Item) (*quiz.Set, error) {
	now := time.Now().UTC()
	setID, err := insertID(ctx, tx, s.builder().Insert(quizSetsTable.Name).
		Set("document_id", documentID).
		Set("created_at", now))
	if err != nil {
		return nil, fmt.Errorf("create quiz set: %w", err)
	}

	set := &quiz.Set{ID: setID, DocumentID: documentID, CreatedAt: now, Items: make([]quiz.Item, len(items))}
	for i, it := range items {
		opts := it.Options
		if opts == nil {
			opts = []string{}
		}
		optJSON, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		id, err := insertID(ctx, tx, s.builder().Insert(quizzesTable.Name).
			Set("quiz_set_id", setID).
			Set("number", i+1).
			Set("type", string(it.Type)).
			Set("question", it.Question).
			Set("options", string(optJSON)).
			Set("correct_answer", it.CorrectAnswer).
			Set("explanation", it.Explanation).
			Set("created_at", now))
		if err != nil {
			return nil, fmt.Errorf("create quiz %d: %w", i+1, err)
		}
		it.ID = id
		it.Options = opts
		set.Items[i] = it
	}
	return set, nil
}

func (r *quizRepo) GetQuizSet(ctx context.Context, id int64) (*quiz.Set, error) {
	var sets []struct {
		ID         int64     `sql:"id"`
		DocumentID int64     `sql:"document_id"`
		CreatedAt  time.Time `sql:"created_at"`
	}
	sel := r.s.builder().Select("id", "document_id", "created_at").
		From(r.s.table(quizSetsTable.Name, "")).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, r.s.drv, sel, &sets); err != nil {
		return nil, fmt.Errorf("get quiz set %d: %w", id, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("quiz set %d: %w", id, ErrNotFound)
	}

	qsel, q, _ := r.s.selectQuizzes()
	qsel.Where(entsql.EQ(q.C("quiz_set_id"), id)).OrderBy(q.C("number"))
	var rows []quizRow
	if err := scanAll(ctx, r.s.drv, qsel, &rows); err != nil {
		return nil, fmt.Errorf("get quizzes of set %d: %w", id, err)
	}

	set := &quiz.Set{ID: sets[0].ID, DocumentID: sets[0].DocumentID, CreatedAt: sets[0].CreatedAt}
	for _, row := range rows {
		sq, err := row.toStored()
		if err != nil {
			return nil, err
		}
		set.Items = append(set.Items, sq.Item)
	}
	return set, nil
}

func (r *quizRepo) GetQuizzes(ctx context.Context, ids []int64) (map[int64]StoredQuiz, error) {
	out := make(map[int64]StoredQuiz, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	sel, q, _ := r.s.selectQuizzes()
	sel.Where(entsql.In(q.C("id"), args...))
	var rows []quizRow
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("get quizzes: %w", err)
	}
	for _, row := range rows {
		sq, err := row.toStored()
		if err != nil {
			return nil, err
		}
		out[sq.ID] = sq
	}
	return out, nil
}

func (r *quizRepo) RecentQuestions(ctx context.Context, documentID int64, n int) ([]string, error) {
	sel, q, qs := r.s.selectQuizzes()
	sel.Where(entsql.EQ(qs.C("document_id"), documentID)).
		OrderBy(r.s.desc(q.C("id")))
	if n > 0 {
		sel.Limit(n)
	}
	var rows []quizRow
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("recent questions: %w", err)
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Question
	}
	return out, nil
}
