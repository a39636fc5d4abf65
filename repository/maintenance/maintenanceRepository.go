package maintenancerepo

import (
	"context"

	"bikerental/model"
	"bikerental/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, m *model.Maintenance) error
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Maintenance, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.MaintenanceStatus) error
	// Complete marks the record completed and closes it at NOW().
	Complete(ctx context.Context, tx pgx.Tx, id int64) error
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
	// CountOpen counts scheduled and in-progress records for the bike.
	CountOpen(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error)

	// List returns records joined with bike names; open limits it to
	// scheduled and in-progress work.
	List(ctx context.Context, open bool) ([]model.Maintenance, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, m *model.Maintenance) error {
	const q = `
		INSERT INTO maintenance (bike_id, start_date, end_date, type, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	return tx.QueryRow(ctx, q, m.BikeID, m.StartDate, m.EndDate, m.Type, m.Description, m.Status).Scan(&m.ID)
}

func (r *repo) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Maintenance, error) {
	const q = `
		SELECT id, bike_id, start_date, end_date, type, description, status
		FROM maintenance
		WHERE id = $1
		FOR UPDATE`
	m := &model.Maintenance{}
	err := tx.QueryRow(ctx, q, id).Scan(&m.ID, &m.BikeID, &m.StartDate, &m.EndDate, &m.Type, &m.Description, &m.Status)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.MaintenanceStatus) error {
	_, err := tx.Exec(ctx, `UPDATE maintenance SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repo) Complete(ctx context.Context, tx pgx.Tx, id int64) error {
	const q = `
		UPDATE maintenance
		SET status = 'completed',
			end_date = NOW()
		WHERE id = $1`
	_, err := tx.Exec(ctx, q, id)
	return err
}

func (r *repo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM maintenance WHERE id = $1`, id)
	return err
}

func (r *repo) List(ctx context.Context, open bool) ([]model.Maintenance, error) {
	q := `
		SELECT m.id, m.bike_id, b.name, m.start_date, m.end_date, m.type, m.description, m.status
		FROM maintenance m
		JOIN bikes b ON b.id = m.bike_id`
	if open {
		q += ` WHERE m.status IN ('scheduled', 'in_progress')`
	}
	q += ` ORDER BY m.start_date DESC, m.id DESC`

	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Maintenance{}
	for rows.Next() {
		var m model.Maintenance
		if err := rows.Scan(&m.ID, &m.BikeID, &m.BikeName, &m.StartDate, &m.EndDate, &m.Type, &m.Description, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repo) CountOpen(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM maintenance
		WHERE bike_id = $1
		AND status IN ('scheduled', 'in_progress')`
	var n int64
	err := tx.QueryRow(ctx, q, bikeID).Scan(&n)
	return n, err
}
