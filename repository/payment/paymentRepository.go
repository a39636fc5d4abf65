package paymentrepo

import (
	"context"

	"bikerental/model"
	"bikerental/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error
	ByReservation(ctx context.Context, reservationID int64) (*model.Payment, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	const q = `
		INSERT INTO payments (reservation_id, amount, method, status, provider_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, q, p.ReservationID, p.Amount, p.Method, p.Status, p.ProviderRef).Scan(&p.ID, &p.CreatedAt)
}

func (r *repo) ByReservation(ctx context.Context, reservationID int64) (*model.Payment, error) {
	const q = `
		SELECT id, reservation_id, amount, method, status, provider_ref, created_at
		FROM payments
		WHERE reservation_id = $1`
	p := &model.Payment{}
	err := r.db.Pool.QueryRow(ctx, q, reservationID).
		Scan(&p.ID, &p.ReservationID, &p.Amount, &p.Method, &p.Status, &p.ProviderRef, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
