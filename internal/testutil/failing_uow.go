package testutil

import (
	"context"
	"database/sql"

	"github.com/alexanderramin/noteline/internal/db"
)

// FailingUoW wraps a real unit of work and makes the failOn-th write inside
// it (counting from 1) return err. Reads pass through untouched.
type FailingUoW struct {
	inner  db.UnitOfWork
	failOn int
	err    error
}

func NewFailingUoW(database *sql.DB, failOn int, err error) *FailingUoW {
	return &FailingUoW{inner: db.NewSQLiteUnitOfWork(database), failOn: failOn, err: err}
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingWrites{DBTX: tx, failOn: u.failOn, err: u.err})
	})
}

type failingWrites struct {
	db.DBTX
	writes int
	failOn int
	err    error
}

func (f *failingWrites) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.writes++
	if f.writes == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
