package usersvc

import (
	"context"
	"errors"

	"bikerental/model"
	userrepo "bikerental/repository/user"
	"bikerental/util/database"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrCode string

const (
	ErrNotFound   ErrCode = "USER_NOT_FOUND"
	ErrSelf       ErrCode = "CANNOT_MODIFY_SELF"
	ErrHasActive  ErrCode = "USER_HAS_ACTIVE_RESERVATIONS"
	ErrHasHistory ErrCode = "USER_HAS_RESERVATION_HISTORY"
	ErrBadInput   ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Me(ctx context.Context, userID int64) (*model.User, error)

	// Admin console. actorID is the admin performing the change and may
	// never be the target.
	List(ctx context.Context) ([]model.UserSummary, error)
	ToggleAdmin(ctx context.Context, actorID, targetID int64) (model.Role, error)
	SetStatus(ctx context.Context, actorID, targetID int64, status model.UserStatus) error
	Delete(ctx context.Context, actorID, targetID int64) error
}

type service struct {
	db database.TxBeginner
	r  userrepo.Repo
}

func New(db database.TxBeginner, r userrepo.Repo) Service { return &service{db: db, r: r} }

func (s *service) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.r.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]model.UserSummary, error) {
	out, err := s.r.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.UserSummary{}
	}
	return out, nil
}

func (s *service) ToggleAdmin(ctx context.Context, actorID, targetID int64) (role model.Role, err error) {
	if actorID == targetID {
		return "", makeErr(ErrSelf)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	u, err := s.r.LockUser(ctx, tx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", makeErr(ErrNotFound)
		}
		return "", err
	}

	role = model.RoleAdmin
	if u.Role == model.RoleAdmin {
		role = model.RoleUser
	}
	if err = s.r.SetRole(ctx, tx, targetID, role); err != nil {
		return "", err
	}
	if err = tx.Commit(ctx); err != nil {
		return "", err
	}
	return role, nil
}

func (s *service) SetStatus(ctx context.Context, actorID, targetID int64, status model.UserStatus) (err error) {
	if status != model.UserActive && status != model.UserDisabled {
		return makeErr(ErrBadInput)
	}
	if actorID == targetID {
		return makeErr(ErrSelf)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = s.r.LockUser(ctx, tx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if err = s.r.SetStatus(ctx, tx, targetID, status); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *service) Delete(ctx context.Context, actorID, targetID int64) (err error) {
	if actorID == targetID {
		return makeErr(ErrSelf)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = s.r.LockUser(ctx, tx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	n, err := s.r.CountActiveReservations(ctx, tx, targetID)
	if err != nil {
		return err
	}
	if n > 0 {
		return makeErr(ErrHasActive)
	}
	if err = s.r.Delete(ctx, tx, targetID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return makeErr(ErrHasHistory)
		}
		return err
	}
	return tx.Commit(ctx)
}
