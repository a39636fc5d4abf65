package reservationsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"bikerental/model"
	bikerepo "bikerental/repository/bike"
	"bikerental/repository/events"
	resrepo "bikerental/repository/reservation"
	"bikerental/util/database"
	"bikerental/util/lock"
	"bikerental/util/metrics"

	"github.com/jackc/pgx/v5"
)

// errors used by controllers

type ErrCode string

const (
	ErrBadInput        ErrCode = "BAD_INPUT"
	ErrBikeNotFound    ErrCode = "BIKE_NOT_FOUND"
	ErrBikeUnavailable ErrCode = "BIKE_UNAVAILABLE"
	ErrNotFound        ErrCode = "RESERVATION_NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrInvalidState    ErrCode = "INVALID_STATE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type BookInput struct {
	BikeID          int64
	StartTime       time.Time
	EndTime         time.Time
	PickupLocation  string
	DropoffLocation string
}

// Bikes is the part of the bike repository a reservation needs.
type Bikes interface {
	LockBike(ctx context.Context, tx pgx.Tx, id int64) (*model.Bike, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.BikeStatus) error
	CountActiveReservations(ctx context.Context, tx pgx.Tx, bikeID int64) (int64, error)
}

var _ Bikes = (bikerepo.Repo)(nil)

type Service interface {
	// Book holds a bike for the caller and creates a pending reservation.
	Book(ctx context.Context, userID int64, in BookInput) (*model.Reservation, error)
	// Get returns a reservation the caller owns; admins may read any.
	Get(ctx context.Context, userID int64, admin bool, id int64) (*model.ReservationView, error)
	My(ctx context.Context, userID int64) ([]model.ReservationView, error)
	Cancel(ctx context.Context, userID, id int64) error

	AdminList(ctx context.Context, f model.ReservationFilter) ([]model.ReservationView, error)
	Confirm(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	AdminCancel(ctx context.Context, id int64) error
}

type Deps struct {
	DB      database.TxBeginner
	Repo    resrepo.Repo
	Bikes   Bikes
	Locker  lock.Locker
	LockTTL time.Duration
	Pub     events.Publisher
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

type service struct {
	Deps
}

func New(d Deps) Service {
	if d.Locker == nil {
		d.Locker = lock.Noop{}
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 10 * time.Second
	}
	if d.Pub == nil {
		d.Pub = events.Noop{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &service{d}
}

func bookingKey(bikeID int64) string { return fmt.Sprintf("booking:bike:%d", bikeID) }

// MaxAmount is the largest total a NUMERIC(10,2) column holds.
const MaxAmount = 99_999_999.99

// Amount rounds hours*rate to cents.
func Amount(hours int64, rate float64) float64 {
	return math.Round(float64(hours)*rate*100) / 100
}

func (s *service) Book(ctx context.Context, userID int64, in BookInput) (res *model.Reservation, err error) {
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffLocation = strings.TrimSpace(in.DropoffLocation)
	if in.BikeID <= 0 || in.StartTime.IsZero() || in.EndTime.IsZero() ||
		in.PickupLocation == "" || in.DropoffLocation == "" {
		return nil, makeErr(ErrBadInput)
	}
	hours := model.BillableHours(in.StartTime, in.EndTime)
	if hours <= 0 {
		return nil, makeErr(ErrBadInput)
	}

	release, err := s.Locker.Acquire(ctx, bookingKey(in.BikeID), s.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.Metrics.Conflict()
			return nil, makeErr(ErrBikeUnavailable)
		}
		return nil, err
	}
	defer release()

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	bike, err := s.Bikes.LockBike(ctx, tx, in.BikeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrBikeNotFound)
		}
		return nil, err
	}
	if bike.Status != model.BikeAvailable {
		s.Metrics.Conflict()
		return nil, makeErr(ErrBikeUnavailable)
	}
	active, err := s.Bikes.CountActiveReservations(ctx, tx, in.BikeID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		s.Metrics.Conflict()
		return nil, makeErr(ErrBikeUnavailable)
	}

	amount := Amount(hours, bike.HourlyRate)
	if amount > MaxAmount {
		return nil, makeErr(ErrBadInput)
	}

	res = &model.Reservation{
		UserID:          userID,
		BikeID:          in.BikeID,
		StartTime:       in.StartTime.UTC(),
		EndTime:         in.EndTime.UTC(),
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		TotalHours:      hours,
		TotalAmount:     amount,
		Status:          model.ReservationPending,
	}
	if err = s.Repo.Insert(ctx, tx, res); err != nil {
		return nil, err
	}
	if err = s.Bikes.SetStatus(ctx, tx, in.BikeID, model.BikeReserved); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Metrics.Reservation(string(res.Status))
	s.publish(ctx, events.Event{
		Type:          events.ReservationCreated,
		BikeID:        res.BikeID,
		ReservationID: res.ID,
		UserID:        userID,
		Status:        string(res.Status),
	})
	return res, nil
}

func (s *service) Get(ctx context.Context, userID int64, admin bool, id int64) (*model.ReservationView, error) {
	v, err := s.Repo.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if !admin && v.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	return v, nil
}

func (s *service) My(ctx context.Context, userID int64) ([]model.ReservationView, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *service) AdminList(ctx context.Context, f model.ReservationFilter) ([]model.ReservationView, error) {
	if err := ValidateFilter(f); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, f)
}

// ValidateFilter checks the status and that to is after from.
func ValidateFilter(f model.ReservationFilter) error {
	switch f.Status {
	case "", model.ReservationPending, model.ReservationConfirmed, model.ReservationCompleted, model.ReservationCancelled:
	default:
		return makeErr(ErrBadInput)
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return makeErr(ErrBadInput)
	}
	return nil
}

func (s *service) Cancel(ctx context.Context, userID, id int64) error {
	return s.transition(ctx, transition{
		id:      id,
		ownerID: userID,
		from:    []model.ReservationStatus{model.ReservationPending, model.ReservationConfirmed},
		to:      model.ReservationCancelled,
		release: true,
		event:   events.ReservationCancelled,
	})
}

func (s *service) AdminCancel(ctx context.Context, id int64) error {
	return s.transition(ctx, transition{
		id:      id,
		from:    []model.ReservationStatus{model.ReservationPending, model.ReservationConfirmed},
		to:      model.ReservationCancelled,
		release: true,
		event:   events.ReservationCancelled,
	})
}

func (s *service) Confirm(ctx context.Context, id int64) error {
	return s.transition(ctx, transition{
		id:    id,
		from:  []model.ReservationStatus{model.ReservationPending},
		to:    model.ReservationConfirmed,
		event: events.ReservationConfirmed,
	})
}

func (s *service) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, transition{
		id:      id,
		from:    []model.ReservationStatus{model.ReservationConfirmed},
		to:      model.ReservationCompleted,
		release: true,
		event:   events.ReservationCompleted,
	})
}

type transition struct {
	id      int64
	ownerID int64 // 0 skips the ownership check
	from    []model.ReservationStatus
	to      model.ReservationStatus
	release bool
	event   string
}

func (s *service) transition(ctx context.Context, t transition) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	res, err := s.Repo.LockByID(ctx, tx, t.id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if t.ownerID != 0 && res.UserID != t.ownerID {
		return makeErr(ErrNotOwner)
	}
	if !statusIn(res.Status, t.from) {
		return makeErr(ErrInvalidState)
	}

	if err = s.Repo.SetStatus(ctx, tx, res.ID, t.to); err != nil {
		return err
	}
	if t.release {
		if err = releaseBike(ctx, tx, s.Bikes, res.BikeID); err != nil {
			return err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}

	s.Metrics.Reservation(string(t.to))
	s.publish(ctx, events.Event{
		Type:          t.event,
		BikeID:        res.BikeID,
		ReservationID: res.ID,
		UserID:        res.UserID,
		Status:        string(t.to),
	})
	return nil
}

// releaseBike returns a reserved bike to the fleet. A bike an admin or a
// damage report moved to maintenance stays there.
func releaseBike(ctx context.Context, tx pgx.Tx, bikes Bikes, bikeID int64) error {
	b, err := bikes.LockBike(ctx, tx, bikeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if b.Status != model.BikeReserved {
		return nil
	}
	return bikes.SetStatus(ctx, tx, bikeID, model.BikeAvailable)
}

func statusIn(s model.ReservationStatus, set []model.ReservationStatus) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func (s *service) publish(ctx context.Context, ev events.Event) {
	if err := s.Pub.Publish(ctx, ev); err != nil {
		s.Log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}
