package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
)

// From builds a selector over table in the dialect of h.
func From(h Handler, table string, columns ...string) *sql.Selector {
	return sql.Dialect(h.Dialect()).Select(columns...).From(sql.Table(table))
}

// Scoped builds a selector over table restricted by scope.
func Scoped(h Handler, scope filter.Scope, table string, columns ...string) (*sql.Selector, error) {
	sel := From(h, table, columns...)
	if err := scope.Apply(sel, table); err != nil {
		return nil, err
	}
	return sel, nil
}

// All runs q and scans every row into a T.
func All[T any](ctx context.Context, h Handler, q sql.Querier) ([]T, error) {
	query, args := q.Query()
	var out []T
	if err := h.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// One runs q and scans the first row into a T. It returns ErrNotFound when
// q yields no rows.
func One[T any](ctx context.Context, h Handler, q sql.Querier) (T, error) {
	query, args := q.Query()
	var out T
	if err := h.GetContext(ctx, &out, query, args...); err != nil {
		return out, err
	}
	return out, nil
}

// Count returns the number of rows matched by sel.
func Count(ctx context.Context, h Handler, sel *sql.Selector) (int, error) {
	query, args := sel.Count().Query()
	var n int
	if err := h.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// Exec runs a write statement and returns the number of affected rows.
func Exec(ctx context.Context, h Handler, q sql.Querier) (int64, error) {
	query, args := q.Query()
	res, err := h.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// Insert builds an insert into table in the dialect of h.
func Insert(h Handler, table string) *sql.InsertBuilder {
	return sql.Dialect(h.Dialect()).Insert(table)
}

// Update builds an update of table restricted by scope. Rows the scope
// cannot see are never touched.
func Update(h Handler, scope filter.Scope, table string) (*sql.UpdateBuilder, error) {
	u := sql.Dialect(h.Dialect()).Update(table)
	p, err := scope.Predicate(table)
	if err != nil {
		return nil, err
	}
	if p != nil {
		u.Where(p)
	}
	return u, nil
}
