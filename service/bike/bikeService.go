package bikesvc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"bikerental/model"
	bikerepo "bikerental/repository/bike"
	"bikerental/repository/events"
	"bikerental/util/database"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrCode string

const (
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrNotFound     ErrCode = "BIKE_NOT_FOUND"
	ErrHasActive    ErrCode = "BIKE_HAS_ACTIVE_RESERVATIONS"
	ErrHasHistory   ErrCode = "BIKE_HAS_RESERVATION_HISTORY"
	ErrOpenDamages  ErrCode = "BIKE_HAS_OPEN_DAMAGES"
	ErrInvalidState ErrCode = "INVALID_STATUS"
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

// history rows shown on the detail page
const historyLimit = 5

type CreateInput struct {
	Name           string
	Type           string
	Specifications string
	ImagePath      string
	HourlyRate     float64
	Status         model.BikeStatus
}

type Service interface {
	List(ctx context.Context, f model.BikeFilter) ([]model.Bike, error)
	Detail(ctx context.Context, id int64) (*model.BikeDetail, error)
	Types(ctx context.Context) ([]string, error)

	Create(ctx context.Context, in CreateInput) (*model.Bike, error)
	UpdateStatus(ctx context.Context, id int64, status model.BikeStatus) error
	UpdateImage(ctx context.Context, id int64, path string) error
	Delete(ctx context.Context, id int64) error
}

type service struct {
	db  database.TxBeginner
	r   bikerepo.Repo
	pub events.Publisher
	log *slog.Logger
}

func New(db database.TxBeginner, r bikerepo.Repo, pub events.Publisher, log *slog.Logger) Service {
	if pub == nil {
		pub = events.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &service{db: db, r: r, pub: pub, log: log}
}

func validStatus(s model.BikeStatus) bool {
	switch s {
	case model.BikeAvailable, model.BikeReserved, model.BikeMaintenance:
		return true
	}
	return false
}

func (s *service) List(ctx context.Context, f model.BikeFilter) ([]model.Bike, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, makeErr(ErrBadInput)
	}
	if f.MinRate < 0 || f.MaxRate < 0 || (f.MaxRate > 0 && f.MinRate > f.MaxRate) {
		return nil, makeErr(ErrBadInput)
	}
	out, err := s.r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Bike{}
	}
	return out, nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.BikeDetail, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	total, err := s.r.CountReservations(ctx, id)
	if err != nil {
		return nil, err
	}
	mh, err := s.r.MaintenanceHistory(ctx, id, historyLimit)
	if err != nil {
		return nil, err
	}
	dh, err := s.r.DamageHistory(ctx, id, historyLimit)
	if err != nil {
		return nil, err
	}
	return &model.BikeDetail{Bike: *b, TotalReservations: total, Maintenance: mh, Damages: dh}, nil
}

func (s *service) Types(ctx context.Context) ([]string, error) { return s.r.Types(ctx) }

func (s *service) Create(ctx context.Context, in CreateInput) (*model.Bike, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	if in.Name == "" || in.Type == "" || in.HourlyRate <= 0 {
		return nil, makeErr(ErrBadInput)
	}
	if in.Status == "" {
		in.Status = model.BikeAvailable
	}
	if in.Status != model.BikeAvailable && in.Status != model.BikeMaintenance {
		return nil, makeErr(ErrInvalidState)
	}

	b := &model.Bike{
		Name:           in.Name,
		Type:           in.Type,
		Specifications: in.Specifications,
		ImagePath:      in.ImagePath,
		HourlyRate:     in.HourlyRate,
		Status:         in.Status,
	}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus lets an admin park a bike in maintenance or return it to the fleet.
// "reserved" is owned by the booking flow and cannot be set here.
func (s *service) UpdateStatus(ctx context.Context, id int64, status model.BikeStatus) (err error) {
	if status != model.BikeAvailable && status != model.BikeMaintenance {
		return makeErr(ErrInvalidState)
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

	if _, err = s.r.LockBike(ctx, tx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}

	if status == model.BikeAvailable {
		var n int64
		if n, err = s.r.CountActiveReservations(ctx, tx, id); err != nil {
			return err
		}
		if n > 0 {
			return makeErr(ErrHasActive)
		}
		if n, err = s.r.CountOpenDamages(ctx, tx, id); err != nil {
			return err
		}
		if n > 0 {
			return makeErr(ErrOpenDamages)
		}
	}

	if err = s.r.SetStatus(ctx, tx, id, status); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}

	s.publish(ctx, events.Event{Type: events.BikeStatusChanged, BikeID: id, Status: string(status)})
	return nil
}

func (s *service) UpdateImage(ctx context.Context, id int64, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return makeErr(ErrBadInput)
	}
	ok, err := s.r.UpdateImage(ctx, id, path)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrNotFound)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = s.r.LockBike(ctx, tx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	n, err := s.r.CountActiveReservations(ctx, tx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return makeErr(ErrHasActive)
	}
	if err = s.r.Delete(ctx, tx, id); err != nil {
		// reservations keep their bike; past bookings block the delete
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return makeErr(ErrHasHistory)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *service) publish(ctx context.Context, ev events.Event) {
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}
