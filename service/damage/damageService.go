package damagesvc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bikerental/model"
	drepo "bikerental/repository/damage"
	"bikerental/repository/events"
	"bikerental/util/database"
	"bikerental/util/metrics"

	"github.com/jackc/pgx/v5"
)

type ErrCode string

const (
	ErrBadInput            ErrCode = "BAD_INPUT"
	ErrNotFound            ErrCode = "DAMAGE_NOT_FOUND"
	ErrBikeNotFound        ErrCode = "BIKE_NOT_FOUND"
	ErrReservationNotFound ErrCode = "RESERVATION_NOT_FOUND"
	ErrNotOwner            ErrCode = "NOT_OWNER"
	ErrInvalidState        ErrCode = "INVALID_STATE"
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

type Reservations interface {
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Reservation, error)
}

type Bikes interface {
	LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error
}

// MaintenanceWriter files the repair work order when a damage is scheduled.
type MaintenanceWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, m *model.Maintenance) error
}

type ReportInput struct {
	Description string
	PhotoPath   string
}

type RepairInput struct {
	StartDate   time.Time
	EndDate     time.Time
	Description string
}

type Service interface {
	// Report files a damage against the caller's own reservation.
	Report(ctx context.Context, userID, reservationID int64, in ReportInput) (*model.Damage, error)
	// AdminReport files a damage directly against a bike.
	AdminReport(ctx context.Context, bikeID int64, in ReportInput) (*model.Damage, error)

	Review(ctx context.Context, id int64) error
	Resolve(ctx context.Context, id int64) error
	ScheduleRepair(ctx context.Context, id int64, in RepairInput) (*model.Maintenance, error)
	List(ctx context.Context, status model.DamageStatus) ([]model.Damage, error)
}

type Deps struct {
	DB           database.TxBeginner
	Repo         drepo.Repo
	Reservations Reservations
	Bikes        Bikes
	Maintenance  MaintenanceWriter
	Pub          events.Publisher
	Metrics      *metrics.Metrics
	Log          *slog.Logger
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

func (s *service) Report(ctx context.Context, userID, reservationID int64, in ReportInput) (d *model.Damage, err error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
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

	res, err := s.Reservations.LockByID(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrReservationNotFound)
		}
		return nil, err
	}
	if res.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}

	uid, rid := userID, reservationID
	d = &model.Damage{
		BikeID:        res.BikeID,
		UserID:        &uid,
		ReservationID: &rid,
		Description:   in.Description,
		PhotoPath:     strings.TrimSpace(in.PhotoPath),
		Status:        model.DamageReported,
	}
	if err = s.file(ctx, tx, d); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.reported(ctx, d)
	return d, nil
}

func (s *service) AdminReport(ctx context.Context, bikeID int64, in ReportInput) (d *model.Damage, err error) {
	in.Description = strings.TrimSpace(in.Description)
	if bikeID <= 0 || in.Description == "" {
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

	d = &model.Damage{
		BikeID:      bikeID,
		Description: in.Description,
		PhotoPath:   strings.TrimSpace(in.PhotoPath),
		Status:      model.DamageReported,
	}
	if err = s.file(ctx, tx, d); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.reported(ctx, d)
	return d, nil
}

// file inserts the report and pulls the bike out of the fleet.
func (s *service) file(ctx context.Context, tx pgx.Tx, d *model.Damage) error {
	if _, err := s.Bikes.LockBike(ctx, tx, d.BikeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrBikeNotFound)
		}
		return err
	}
	if err := s.Repo.Insert(ctx, tx, d); err != nil {
		return err
	}
	return s.Bikes.SetStatus(ctx, tx, d.BikeID, model.BikeMaintenance)
}

func (s *service) reported(ctx context.Context, d *model.Damage) {
	s.Metrics.Damage()
	ev := events.Event{Type: events.DamageReported, BikeID: d.BikeID, Status: string(d.Status), Message: d.Description}
	if d.UserID != nil {
		ev.UserID = *d.UserID
	}
	if d.ReservationID != nil {
		ev.ReservationID = *d.ReservationID
	}
	s.publish(ctx, ev)
}

func (s *service) Review(ctx context.Context, id int64) error {
	return s.move(ctx, id, model.DamageUnderReview, model.DamageReported)
}

func (s *service) Resolve(ctx context.Context, id int64) error {
	return s.move(ctx, id, model.DamageResolved, model.DamageReported, model.DamageUnderReview)
}

func (s *service) move(ctx context.Context, id int64, to model.DamageStatus, from ...model.DamageStatus) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = s.lockOpen(ctx, tx, id, from...); err != nil {
		return err
	}
	if err = s.Repo.SetStatus(ctx, tx, id, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ScheduleRepair resolves the damage and books a damage_repair work order
// for its bike in one transaction.
func (s *service) ScheduleRepair(ctx context.Context, id int64, in RepairInput) (m *model.Maintenance, err error) {
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
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

	d, err := s.lockOpen(ctx, tx, id, model.DamageReported, model.DamageUnderReview)
	if err != nil {
		return nil, err
	}
	if err = s.Repo.SetStatus(ctx, tx, id, model.DamageResolved); err != nil {
		return nil, err
	}

	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = "Repair: " + d.Description
	}
	m = &model.Maintenance{
		BikeID:      d.BikeID,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Type:        model.MaintenanceDamageRepair,
		Description: desc,
		Status:      model.MaintenanceScheduled,
	}
	if err = s.Maintenance.Insert(ctx, tx, m); err != nil {
		return nil, err
	}
	if err = s.Bikes.SetStatus(ctx, tx, d.BikeID, model.BikeMaintenance); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Metrics.MaintenanceStatus(string(model.MaintenanceScheduled))
	s.publish(ctx, events.Event{
		Type:    events.MaintenanceScheduled,
		BikeID:  d.BikeID,
		Status:  string(model.MaintenanceScheduled),
		Message: string(model.MaintenanceDamageRepair),
	})
	return m, nil
}

func (s *service) List(ctx context.Context, status model.DamageStatus) ([]model.Damage, error) {
	switch status {
	case "", model.DamageReported, model.DamageUnderReview, model.DamageResolved:
	default:
		return nil, makeErr(ErrBadInput)
	}
	return s.Repo.List(ctx, status)
}

func (s *service) lockOpen(ctx context.Context, tx pgx.Tx, id int64, allowed ...model.DamageStatus) (*model.Damage, error) {
	d, err := s.Repo.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	for _, st := range allowed {
		if d.Status == st {
			return d, nil
		}
	}
	return nil, makeErr(ErrInvalidState)
}

func (s *service) publish(ctx context.Context, ev events.Event) {
	if err := s.Pub.Publish(ctx, ev); err != nil {
		s.Log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}
