package bikerepo

import (
	"context"
	"fmt"
	"strings"

	"bikerental/model"
	"bikerental/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	List(ctx context.Context, f model.BikeFilter) ([]model.Bike, error)
	ByID(ctx context.Context, id int64) (*model.Bike, error)
	Types(ctx context.Context) ([]string, error)
	Create(ctx context.Context, b *model.Bike) error
	UpdateImage(ctx context.Context, id int64, path string) (bool, error)

	CountReservations(ctx context.Context, bikeID int64) (int64, error)
	MaintenanceHistory(ctx context.Context, bikeID int64, limit int) ([]model.Maintenance, error)
	DamageHistory(ctx context.Context, bikeID int64, limit int) ([]model.Damage, error)

	// Row-locked helpers shared by booking, maintenance and damage flows.
	LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error
	CountActiveReservations(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error)
	CountOpenDamages(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const bikeCols = `id, name, type, specifications, image_path, hourly_rate, status, created_at`

func scanBike(row pgx.Row) (*model.Bike, error) {
	b := &model.Bike{}
	if err := row.Scan(&b.ID, &b.Name, &b.Type, &b.Specifications, &b.ImagePath, &b.HourlyRate, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context, f model.BikeFilter) ([]model.Bike, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.MinRate > 0 {
		add("hourly_rate >= $%d", f.MinRate)
	}
	if f.MaxRate > 0 {
		add("hourly_rate <= $%d", f.MaxRate)
	}

	q := `SELECT ` + bikeCols + ` FROM bikes`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id DESC`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bike
	for rows.Next() {
		b, err := scanBike(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Bike, error) {
	return scanBike(r.db.Pool.QueryRow(ctx, `SELECT `+bikeCols+` FROM bikes WHERE id = $1`, id))
}

func (r *repo) Types(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT type FROM bikes ORDER BY type`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repo) Create(ctx context.Context, b *model.Bike) error {
	const q = `
		INSERT INTO bikes (name, type, specifications, image_path, hourly_rate, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.db.Pool.QueryRow(ctx, q, b.Name, b.Type, b.Specifications, b.ImagePath, b.HourlyRate, b.Status).
		Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) UpdateImage(ctx context.Context, id int64, path string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE bikes SET image_path = $2 WHERE id = $1`, id, path)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) CountReservations(ctx context.Context, bikeID int64) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE bike_id = $1`, bikeID).Scan(&n)
	return n, err
}

func (r *repo) MaintenanceHistory(ctx context.Context, bikeID int64, limit int) ([]model.Maintenance, error) {
	const q = `
		SELECT id, bike_id, start_date, end_date, type, description, status
		FROM maintenance
		WHERE bike_id = $1
		ORDER BY start_date DESC
		LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, bikeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Maintenance{}
	for rows.Next() {
		var m model.Maintenance
		if err := rows.Scan(&m.ID, &m.BikeID, &m.StartDate, &m.EndDate, &m.Type, &m.Description, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repo) DamageHistory(ctx context.Context, bikeID int64, limit int) ([]model.Damage, error) {
	const q = `
		SELECT id, bike_id, user_id, reservation_id, description, photo_path, status, reported_at
		FROM damages
		WHERE bike_id = $1
		ORDER BY reported_at DESC
		LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, bikeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Damage{}
	for rows.Next() {
		var d model.Damage
		if err := rows.Scan(&d.ID, &d.BikeID, &d.UserID, &d.ReservationID, &d.Description, &d.PhotoPath, &d.Status, &d.ReportedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repo) LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error) {
	return scanBike(tx.QueryRow(ctx, `SELECT `+bikeCols+` FROM bikes WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error {
	_, err := tx.Exec(ctx, `UPDATE bikes SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repo) CountActiveReservations(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM reservations
		WHERE bike_id = $1
		AND status IN ('pending', 'confirmed')`
	var n int64
	err := tx.QueryRow(ctx, q, bikeID).Scan(&n)
	return n, err
}

func (r *repo) CountOpenDamages(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM damages
		WHERE bike_id = $1
		AND status IN ('reported', 'under_review')`
	var n int64
	err := tx.QueryRow(ctx, q, bikeID).Scan(&n)
	return n, err
}

func (r *repo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM bikes WHERE id = $1`, id)
	return err
}
