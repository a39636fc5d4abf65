package maintenancesvc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bikerental/model"
	"bikerental/repository/events"
	mrepo "bikerental/repository/maintenance"
	"bikerental/util/database"
	"bikerental/util/metrics"

	"github.com/jackc/pgx/v5"
)

type ErrCode string

const (
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrBikeNotFound ErrCode = "BIKE_NOT_FOUND"
	ErrBikeBusy     ErrCode = "BIKE_HAS_ACTIVE_RESERVATIONS"
	ErrNotFound     ErrCode = "MAINTENANCE_NOT_FOUND"
	ErrInvalidState ErrCode = "INVALID_STATE"
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

type Bikes interface {
	LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error
	CountActiveReservations(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error)
	CountOpenDamages(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error)
}

type ScheduleInput struct {
	BikeID      int64
	StartDate   time.Time
	EndDate     time.Time
	Type        model.MaintenanceType
	Description string
}

type Service interface {
	Schedule(ctx context.Context, in ScheduleInput) (*model.Maintenance, error)
	Start(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, open bool) ([]model.Maintenance, error)
}

type Deps struct {
	DB      database.TxBeginner
	Repo    mrepo.Repo
	Bikes   Bikes
	Pub     events.Publisher
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

type service struct{ Deps }

func New(d Deps) Service {
	if d.Pub == nil {
		d.Pub = events.Noop{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &service{d}
}

func (s *service) Schedule(ctx context.Context, in ScheduleInput) (m *model.Maintenance, err error) {
	if in.BikeID <= 0 || in.StartDate.IsZero() || in.EndDate.IsZero() || !in.Type.Valid() {
		return nil, makeErr(ErrBadInput)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, makeErr(ErrBadInput)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = s.Bikes.LockBike(ctx, tx, in.BikeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrBikeNotFound)
		}
		return nil, err
	}
	n, err := s.Bikes.CountActiveReservations(ctx, tx, in.BikeID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, makeErr(ErrBikeBusy)
	}

	m = &model.Maintenance{
		BikeID:      in.BikeID,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		Status:      model.MaintenanceScheduled,
	}
	if err = s.Repo.Insert(ctx, tx, m); err != nil {
		return nil, err
	}
	if err = s.Bikes.SetStatus(ctx, tx, in.BikeID, model.BikeMaintenance); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Metrics.MaintenanceStatus(string(m.Status))
	s.publish(ctx, events.Event{Type: events.MaintenanceScheduled, BikeID: m.BikeID, Status: string(m.Status), Message: string(m.Type)})
	return m, nil
}

func (s *service) Start(ctx context.Context, id int64) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	m, err := s.lock(ctx, tx, id)
	if err != nil {
		return err
	}
	if m.Status != model.MaintenanceScheduled {
		return makeErr(ErrInvalidState)
	}
	if err = s.Repo.SetStatus(ctx, tx, id, model.MaintenanceInProgress); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}
	s.Metrics.MaintenanceStatus(string(model.MaintenanceInProgress))
	return nil
}

// Complete closes the work order now and hands the bike back via release.
func (s *service) Complete(ctx context.Context, id int64) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	m, err := s.lock(ctx, tx, id)
	if err != nil {
		return err
	}
	if m.Status == model.MaintenanceCompleted {
		return makeErr(ErrInvalidState)
	}
	if err = s.Repo.Complete(ctx, tx, id); err != nil {
		return err
	}
	if err = s.release(ctx, tx, m.BikeID); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}

	s.Metrics.MaintenanceStatus(string(model.MaintenanceCompleted))
	s.publish(ctx, events.Event{Type: events.MaintenanceCompleted, BikeID: m.BikeID, Status: string(model.MaintenanceCompleted)})
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	m, err := s.lock(ctx, tx, id)
	if err != nil {
		return err
	}
	if err = s.Repo.Delete(ctx, tx, id); err != nil {
		return err
	}
	if m.Status != model.MaintenanceCompleted {
		if err = s.release(ctx, tx, m.BikeID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// release takes a bike out of maintenance once nothing keeps it there.
// Other open work orders or open damages keep it in maintenance; an active
// reservation makes it reserved; otherwise it becomes available.
func (s *service) release(ctx context.Context, tx pgx.Tx, bikeID int64) error {
	b, err := s.Bikes.LockBike(ctx, tx, bikeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrBikeNotFound)
		}
		return err
	}
	if b.Status != model.BikeMaintenance {
		return nil
	}

	open, err := s.Repo.CountOpen(ctx, tx, bikeID)
	if err != nil {
		return err
	}
	damages, err := s.Bikes.CountOpenDamages(ctx, tx, bikeID)
	if err != nil {
		return err
	}
	if open > 0 || damages > 0 {
		return nil
	}

	active, err := s.Bikes.CountActiveReservations(ctx, tx, bikeID)
	if err != nil {
		return err
	}
	next := model.BikeAvailable
	if active > 0 {
		next = model.BikeReserved
	}
	return s.Bikes.SetStatus(ctx, tx, bikeID, next)
}

func (s *service) List(ctx context.Context, open bool) ([]model.Maintenance, error) {
	return s.Repo.List(ctx, open)
}

func (s *service) lock(ctx context.Context, tx pgx.Tx, id int64) (*model.Maintenance, error) {
	m, err := s.Repo.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (s *service) publish(ctx context.Context, ev events.Event) {
	if err := s.Pub.Publish(ctx, ev); err != nil {
		s.Log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}
