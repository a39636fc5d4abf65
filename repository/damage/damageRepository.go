package damagerepo

import (
	"context"

	"bikerental/model"
	"bikerental/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, d *model.Damage) error
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Damage, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.DamageStatus) error
	List(ctx context.Context, status model.DamageStatus) ([]model.Damage, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, d *model.Damage) error {
	const q = `
		INSERT INTO damages (bike_id, user_id, reservation_id, description, photo_path, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reported_at`
	return tx.QueryRow(ctx, q, d.BikeID, d.UserID, d.ReservationID, d.Description, d.PhotoPath, d.Status).
		Scan(&d.ID, &d.ReportedAt)
}

func (r *repo) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Damage, error) {
	const q = `
		SELECT id, bike_id, user_id, reservation_id, description, photo_path, status, reported_at
		FROM damages
		WHERE id = $1
		FOR UPDATE`
	d := &model.Damage{}
	err := tx.QueryRow(ctx, q, id).
		Scan(&d.ID, &d.BikeID, &d.UserID, &d.ReservationID, &d.Description, &d.PhotoPath, &d.Status, &d.ReportedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.DamageStatus) error {
	_, err := tx.Exec(ctx, `UPDATE damages SET status = $2 WHERE id = $1`, id, status)
	return err
}

// List returns damage reports newest first. An empty status lists all.
func (r *repo) List(ctx context.Context, status model.DamageStatus) ([]model.Damage, error) {
	q := `
		SELECT d.id, d.bike_id, b.name, d.user_id, d.reservation_id, d.description, d.photo_path, d.status, d.reported_at
		FROM damages d
		JOIN bikes b ON b.id = d.bike_id`
	var args []any
	if status != "" {
		q += ` WHERE d.status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY d.reported_at DESC, d.id DESC`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Damage{}
	for rows.Next() {
		var d model.Damage
		if err := rows.Scan(&d.ID, &d.BikeID, &d.BikeName, &d.UserID, &d.ReservationID, &d.Description, &d.PhotoPath, &d.Status, &d.ReportedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
