package userrepo

import (
	"context"
	"errors"

	"bikerental/model"
	"bikerental/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.UserSummary, error)

	LockUser(ctx context.Context, tx pgx.Tx, id int64) (*model.User, error)
	SetRole(ctx context.Context, tx pgx.Tx, id int64, role model.Role) error
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.UserStatus) error
	CountActiveReservations(ctx context.Context, tx pgx.Tx, id int64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const userCols = `id, first_name, last_name, email, password_hash, role, status, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repo) List(ctx context.Context) ([]model.UserSummary, error) {
	const q = `
		SELECT u.id, u.first_name, u.last_name, u.email, u.role, u.status, u.created_at,
			(SELECT COUNT(*) FROM reservations r WHERE r.user_id = u.id) AS total_rentals,
			(SELECT COUNT(*) FROM reservations r
			  WHERE r.user_id = u.id AND r.status IN ('pending', 'confirmed')) AS active_rentals
		FROM users u
		ORDER BY u.created_at DESC, u.id DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserSummary
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Role, &s.Status, &s.CreatedAt,
			&s.TotalRentals, &s.ActiveRentals); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repo) LockUser(ctx context.Context, tx pgx.Tx, id int64) (*model.User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) SetRole(ctx context.Context, tx pgx.Tx, id int64, role model.Role) error {
	_, err := tx.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	return err
}

func (r *repo) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.UserStatus) error {
	_, err := tx.Exec(ctx, `UPDATE users SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repo) CountActiveReservations(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM reservations
		WHERE user_id = $1
		AND status IN ('pending', 'confirmed')`
	var n int64
	err := tx.QueryRow(ctx, q, id).Scan(&n)
	return n, err
}

func (r *repo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("user not deleted")
	}
	return nil
}
