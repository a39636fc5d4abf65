package events

import (
	"context"
	"errors"
	"time"
)

const (
	ReservationCreated   = "reservation.created"
	ReservationConfirmed = "reservation.confirmed"
	ReservationCompleted = "reservation.completed"
	ReservationCancelled = "reservation.cancelled"
	DamageReported       = "damage.reported"
	MaintenanceScheduled = "maintenance.scheduled"
	MaintenanceCompleted = "maintenance.completed"
	BikeStatusChanged    = "bike.status_changed"
)

type Event struct {
	Type          string    `json:"type"`
	BikeID        int64     `json:"bike_id"`
	ReservationID int64     `json:"reservation_id,omitempty"`
	UserID        int64     `json:"user_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Message       string    `json:"message,omitempty"`
	At            time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Fanout delivers an event to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
