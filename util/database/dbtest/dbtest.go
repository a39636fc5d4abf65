// Package dbtest has in-memory stand-ins for pgx transactions used by service tests.
package dbtest

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Tx records whether it was committed or rolled back. Any other pgx.Tx
// method panics on the nil embedded interface.
type Tx struct {
	pgx.Tx
	Committed  bool
	RolledBack bool
	CommitErr  error
}

func (t *Tx) Commit(context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.Committed {
		return pgx.ErrTxClosed
	}
	t.RolledBack = true
	return nil
}

// DB hands out Tx values and keeps the last one for assertions.
type DB struct {
	Last     *Tx
	BeginErr error
}

func (d *DB) Begin(context.Context) (pgx.Tx, error) {
	if d.BeginErr != nil {
		return nil, d.BeginErr
	}
	d.Last = &Tx{}
	return d.Last, nil
}
