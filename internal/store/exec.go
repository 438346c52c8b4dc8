package store

import (
	"context"
	"fmt"
	"math"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// builder returns a dialect-aware SQL builder.
func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// withTx runs fn inside one transaction. Any error or panic rolls back.
func (s *Store) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// insertID runs an insert and returns the generated id. Both supported
// dialects understand RETURNING.
func insertID(ctx context.Context, ex dialect.ExecQuerier, ins *entsql.InsertBuilder) (int64, error) {
	query, args := ins.Returning("id").Query()
	var rows entsql.Rows
	if err := ex.Query(ctx, query, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt64(rows)
}

// execQuery runs a statement that returns no rows.
func execQuery(ctx context.Context, ex dialect.ExecQuerier, q entsql.Querier) error {
	query, args := q.Query()
	return ex.Exec(ctx, query, args, nil)
}

// scanAll runs a select and scans every row into dst, a pointer to a slice
// of structs tagged with `sql` column names.
func scanAll(ctx context.Context, ex dialect.ExecQuerier, sel entsql.Querier, dst any) error {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := ex.Query(ctx, query, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	return entsql.ScanSlice(rows, dst)
}

// scanCount runs a single-value COUNT select.
func scanCount(ctx context.Context, ex dialect.ExecQuerier, sel entsql.Querier) (int, error) {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := ex.Query(ctx, query, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}

// table returns a dialect-aware table reference, aliased when alias is set.
func (s *Store) table(name, alias string) *entsql.SelectTable {
	t := s.builder().Table(name)
	if alias != "" {
		t.As(alias)
	}
	return t
}

// desc renders "col DESC" quoted for the active dialect.
func (s *Store) desc(col string) string {
	return s.builder().String(func(b *entsql.Builder) {
		b.Ident(col).WriteString(" DESC")
	})
}

// page applies limit/offset to a selector. SQLite rejects OFFSET without
// LIMIT, so an offset alone gets an unbounded limit.
func page(sel *entsql.Selector, opts PageOpts) {
	switch {
	case opts.Limit > 0:
		sel.Limit(opts.Limit)
	case opts.Offset > 0:
		sel.Limit(math.MaxInt32)
	}
	if opts.Offset > 0 {
		sel.Offset(opts.Offset)
	}
}
