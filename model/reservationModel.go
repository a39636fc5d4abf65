// model/reservation.go
package model

import (
	"math"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Active reports whether the reservation still holds its bike.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

type Reservation struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	BikeID          int64             `json:"bike_id"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	PickupLocation  string            `json:"pickup_location"`
	DropoffLocation string            `json:"dropoff_location"`
	TotalHours      int64             `json:"total_hours"`
	TotalAmount     float64           `json:"total_amount"`
	Status          ReservationStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ReservationView joins a reservation with its bike, customer and payment.
type ReservationView struct {
	Reservation
	BikeName      string  `json:"bike_name"`
	BikeType      string  `json:"bike_type"`
	BikeImage     string  `json:"bike_image"`
	HourlyRate    float64 `json:"hourly_rate"`
	UserName      string  `json:"user_name,omitempty"`
	UserEmail     string  `json:"user_email,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
}

type ReservationFilter struct {
	Status ReservationStatus
	From   *time.Time
	To     *time.Time
}

// BillableHours rounds the rental window up to whole hours.
func BillableHours(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Hours()))
}
