package paymentsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bikerental/model"
	"bikerental/repository/events"
	gatewayrepo "bikerental/repository/gateway"
	paymentrepo "bikerental/repository/payment"
	"bikerental/util/database"
	"bikerental/util/metrics"

	"github.com/jackc/pgx/v5"
)

type ErrCode string

const (
	ErrBadMethod    ErrCode = "INVALID_PAYMENT_METHOD"
	ErrNotFound     ErrCode = "RESERVATION_NOT_FOUND"
	ErrNotOwner     ErrCode = "NOT_OWNER"
	ErrNotPending   ErrCode = "RESERVATION_NOT_PENDING"
	ErrChargeFailed ErrCode = "CHARGE_FAILED"
	ErrAlreadyPaid  ErrCode = "ALREADY_PAID"
)

type codedError struct {
	code  ErrCode
	cause error
}

func (e codedError) Error() string {
	if e.cause != nil {
		return string(e.code) + ": " + e.cause.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.cause }

func makeErr(c ErrCode) error { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Reservations is the subset of the reservation repository used to settle a booking.
type Reservations interface {
	ByID(ctx context.Context, id int64) (*model.ReservationView, error)
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Reservation, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id int64, status model.ReservationStatus) error
}

type Service interface {
	// Pay settles a pending reservation and confirms it. Card and UPI are
	// charged through the gateway; cash on delivery is recorded as is.
	Pay(ctx context.Context, userID, reservationID int64, method model.PaymentMethod) (*model.Payment, error)
}

type Deps struct {
	DB           database.TxBeginner
	Reservations Reservations
	Payments     paymentrepo.Repo
	Gateway      gatewayrepo.Repo
	Pub          events.Publisher
	Metrics      *metrics.Metrics
	Log          *slog.Logger
}

type service struct{ Deps }

func New(d Deps) Service {
	if d.Gateway == nil {
		d.Gateway = gatewayrepo.NewStub()
	}
	if d.Pub == nil {
		d.Pub = events.Noop{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &service{d}
}

func (s *service) Pay(ctx context.Context, userID, reservationID int64, method model.PaymentMethod) (_ *model.Payment, err error) {
	if !method.Valid() {
		return nil, makeErr(ErrBadMethod)
	}

	view, err := s.Reservations.ByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if view.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	if view.PaymentStatus != nil {
		return nil, makeErr(ErrAlreadyPaid)
	}
	if view.Status != model.ReservationPending {
		return nil, makeErr(ErrNotPending)
	}

	p := &model.Payment{
		ReservationID: reservationID,
		Amount:        view.TotalAmount,
		Method:        method,
		Status:        model.PaymentCompleted,
	}

	if method != model.PayCOD {
		resp, cerr := s.Gateway.Charge(ctx, gatewayrepo.ChargeReq{
			ExternalID:  fmt.Sprintf("reservation:%d", reservationID),
			Amount:      view.TotalAmount,
			Method:      string(method),
			PayerEmail:  view.UserEmail,
			Description: fmt.Sprintf("%s rental, %d h", view.BikeName, view.TotalHours),
		})
		if cerr != nil {
			s.Log.Warn("charge failed", "reservation_id", reservationID, "method", method, "err", cerr)
			return nil, codedError{code: ErrChargeFailed, cause: cerr}
		}
		p.ProviderRef = resp.Reference
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			if p.ProviderRef != "" {
				s.Log.Error("charge captured but booking not confirmed",
					"reservation_id", reservationID, "provider_ref", p.ProviderRef, "err", err)
			}
		}
	}()

	res, err := s.Reservations.LockByID(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	// cancelled by the cleaner or an admin while the charge was in flight
	if res.Status != model.ReservationPending {
		return nil, makeErr(ErrNotPending)
	}

	if err = s.Payments.Insert(ctx, tx, p); err != nil {
		return nil, err
	}
	if err = s.Reservations.SetStatus(ctx, tx, reservationID, model.ReservationConfirmed); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Metrics.Payment(string(method), p.Amount)
	s.Metrics.Reservation(string(model.ReservationConfirmed))
	if perr := s.Pub.Publish(ctx, events.Event{
		Type:          events.ReservationConfirmed,
		BikeID:        res.BikeID,
		ReservationID: res.ID,
		UserID:        userID,
		Status:        string(model.ReservationConfirmed),
		Message:       "paid by " + string(method),
	}); perr != nil {
		s.Log.Warn("event publish failed", "type", events.ReservationConfirmed, "err", perr)
	}
	return p, nil
}
