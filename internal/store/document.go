package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type documentRepo struct {
	s *Store
}

type documentRow struct {
	ID        int64     `sql:"id"`
	UUID      string    `sql:"uuid"`
	Name      string    `sql:"name"`
	Content   string    `sql:"content"`
	CreatedAt time.Time `sql:"created_at"`
}

func (r documentRow) toDocument() Document {
	return Document(r)
}

func (r *documentRepo) Create(ctx context.Context, name, content string) (*Document, error) {
	doc := Document{
		UUID:      uuid.NewString(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	id, err := insertID(ctx, r.s.drv, r.s.builder().Insert(documentsTable.Name).
		Set("uuid", doc.UUID).
		Set("name", doc.Name).
		Set("content", doc.Content).
		Set("created_at", doc.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	doc.ID = id
	return &doc, nil
}

func (r *documentRepo) Get(ctx context.Context, id int64) (*Document, error) {
	var rows []documentRow
	sel := r.s.builder().Select("id", "uuid", "name", "content", "created_at").
		From(r.s.table(documentsTable.Name, "")).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	doc := rows[0].toDocument()
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, opts PageOpts) ([]Document, error) {
	var rows []documentRow
	sel := r.s.builder().Select("id", "uuid", "name", "content", "created_at").
		From(r.s.table(documentsTable.Name, "")).
		OrderBy(r.s.desc("id"))
	page(sel, opts)
	if err := scanAll(ctx, r.s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]Document, len(rows))
	for i, row := range rows {
		docs[i] = row.toDocument()
	}
	return docs, nil
}
