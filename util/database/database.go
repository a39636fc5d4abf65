package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct{ Pool *pgxpool.Pool }

func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &DB{Pool: p}, nil
}

// Begin opens a transaction on the pool.
func (d *DB) Begin(ctx context.Context) (pgx.Tx, error) { return d.Pool.Begin(ctx) }

func (d *DB) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// TxBeginner is what services need from the database to run a unit of work.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
