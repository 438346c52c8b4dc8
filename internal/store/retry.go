package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lecsum/internal/quiz"
)

type retryRepo struct {
	s *Store
}

func (r *retryRepo) SaveRetrySet(ctx context.Context, documentID, originalAttemptID int64, groups []RetryGroup) (*quiz.RetrySet, *quiz.Set, error) {
	var items []quiz.Item
	var origins []int64
	for _, g := range groups {
		for _, it := range g.Items {
			items = append(items, it)
			origins = append(origins, g.OriginalQuizID)
		}
	}

	var (
		rs  *quiz.RetrySet
		set *quiz.Set
	)
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		set, err = r.s.insertQuizSet(ctx, tx, documentID, items)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		id, err := insertID(ctx, tx, r.s.builder().Insert(retrySetsTable.Name).
			Set("original_attempt_id", originalAttemptID).
			Set("quiz_set_id", set.ID).
			Set("created_at", now))
		if err != nil {
			return fmt.Errorf("create retry set: %w", err)
		}
		rs = &quiz.RetrySet{ID: id, OriginalAttemptID: originalAttemptID, QuizSetID: set.ID, CreatedAt: now}

		for i, it := range set.Items {
			link := quiz.RetryItem{QuizID: it.ID, OriginalQuizID: origins[i], Position: i + 1}
			_, err := insertID(ctx, tx, r.s.builder().Insert(retryItemsTable.Name).
				Set("retry_set_id", id).
				Set("quiz_id", link.QuizID).
				Set("original_quiz_id", link.OriginalQuizID).
				Set("position", link.Position))
			if err != nil {
				return fmt.Errorf("create retry item %d: %w", link.Position, err)
			}
			rs.Items = append(rs.Items, link)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rs, set, nil
}

func (r *retryRepo) GetRetrySet(ctx context.Context, id int64) (*quiz.RetrySet, error) {
	var sets []struct {
		ID                int64     `sql:"id"`
		OriginalAttemptID int64     `sql:"original_attempt_id"`
		QuizSetID         int64     `sql:"quiz_set_id"`
		CreatedAt         time.Time `sql:"created_at"`
	}
	sel := r.s.builder().Select("id", "original_attempt_id", "quiz_set_id", "created_at").
		From(r.s.table(retrySetsTable.Name, "")).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, r.s.drv, sel, &sets); err != nil {
		return nil, fmt.Errorf("get retry set %d: %w", id, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("retry set %d: %w", id, ErrNotFound)
	}

	var links []struct {
		QuizID         int64 `sql:"quiz_id"`
		OriginalQuizID int64 `sql:"original_quiz_id"`
		Position       int   `sql:"position"`
	}
	isel := r.s.builder().Select("quiz_id", "original_quiz_id", "position").
		From(r.s.table(retryItemsTable.Name, "")).
		Where(entsql.EQ("retry_set_id", id)).
		OrderBy("position")
	if err := scanAll(ctx, r.s.drv, isel, &links); err != nil {
		return nil, fmt.Errorf("get items of retry set %d: %w", id, err)
	}

	rs := &quiz.RetrySet{
		ID:                sets[0].ID,
		OriginalAttemptID: sets[0].OriginalAttemptID,
		QuizSetID:         sets[0].QuizSetID,
		CreatedAt:         sets[0].CreatedAt,
		Items:             make([]quiz.RetryItem, len(links)),
	}
	for i, l := range links {
		rs.Items[i] = quiz.RetryItem(l)
	}
	return rs, nil
}
