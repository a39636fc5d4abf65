package reservationrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bikerental/model"
	"bikerental/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, r *model.Reservation) error
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Reservation, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.ReservationStatus) error

	// ListExpiredPending locks pending reservations created before the cutoff.
	ListExpiredPending(ctx context.Context, tx pgx.Tx, before time.Time, limit int) ([]model.Reservation, error)

	ByID(ctx context.Context, id int64) (*model.ReservationView, error)
	ListByUser(ctx context.Context, userID int64) ([]model.ReservationView, error)
	List(ctx context.Context, f model.ReservationFilter) ([]model.ReservationView, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const resCols = `id, user_id, bike_id, start_time, end_time, pickup_location, dropoff_location,
	total_hours, total_amount, status, created_at`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	r := &model.Reservation{}
	if err := row.Scan(&r.ID, &r.UserID, &r.BikeID, &r.StartTime, &r.EndTime, &r.PickupLocation, &r.DropoffLocation,
		&r.TotalHours, &r.TotalAmount, &r.Status, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	const q = `
		INSERT INTO reservations (user_id, bike_id, start_time, end_time, pickup_location, dropoff_location,
			total_hours, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, q, res.UserID, res.BikeID, res.StartTime, res.EndTime, res.PickupLocation,
		res.DropoffLocation, res.TotalHours, res.TotalAmount, res.Status).Scan(&res.ID, &res.CreatedAt)
}

func (r *repo) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Reservation, error) {
	return scanReservation(tx.QueryRow(ctx, `SELECT `+resCols+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.ReservationStatus) error {
	_, err := tx.Exec(ctx, `UPDATE reservations SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repo) ListExpiredPending(ctx context.Context, tx pgx.Tx, before time.Time, limit int) ([]model.Reservation, error) {
	const q = `
		SELECT ` + resCols + `
		FROM reservations
		WHERE status = 'pending'
		AND created_at < $1
		ORDER BY id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`
	rows, err := tx.Query(ctx, q, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Views

const viewSelect = `
	SELECT r.id, r.user_id, r.bike_id, r.start_time, r.end_time, r.pickup_location, r.dropoff_location,
		r.total_hours, r.total_amount, r.status, r.created_at,
		b.name, b.type, b.image_path, b.hourly_rate,
		u.first_name || ' ' || u.last_name, u.email,
		p.status, p.method
	FROM reservations r
	JOIN bikes b ON b.id = r.bike_id
	JOIN users u ON u.id = r.user_id
	LEFT JOIN payments p ON p.reservation_id = r.id`

func scanView(row pgx.Row) (*model.ReservationView, error) {
	v := &model.ReservationView{}
	if err := row.Scan(&v.ID, &v.UserID, &v.BikeID, &v.StartTime, &v.EndTime, &v.PickupLocation, &v.DropoffLocation,
		&v.TotalHours, &v.TotalAmount, &v.Status, &v.CreatedAt,
		&v.BikeName, &v.BikeType, &v.BikeImage, &v.HourlyRate,
		&v.UserName, &v.UserEmail,
		&v.PaymentStatus, &v.PaymentMethod); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repo) collect(ctx context.Context, q string, args ...any) ([]model.ReservationView, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ReservationView{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.ReservationView, error) {
	return scanView(r.db.Pool.QueryRow(ctx, viewSelect+` WHERE r.id = $1`, id))
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.ReservationView, error) {
	return r.collect(ctx, viewSelect+` WHERE r.user_id = $1 ORDER BY r.created_at DESC, r.id DESC`, userID)
}

func (r *repo) List(ctx context.Context, f model.ReservationFilter) ([]model.ReservationView, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("r.status = $%d", f.Status)
	}
	if f.From != nil {
		add("r.start_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("r.start_time < $%d", *f.To)
	}

	q := viewSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY r.created_at DESC, r.id DESC`
	return r.collect(ctx, q, args...)
}
