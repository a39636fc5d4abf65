// model/payment.go
package model

import "time"

type PaymentMethod string

const (
	PayCOD  PaymentMethod = "cod"
	PayCard PaymentMethod = "card"
	PayUPI  PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCOD, PayCard, PayUPI:
		return true
	}
	return false
}

type PaymentStatus string

const PaymentCompleted PaymentStatus = "completed"

type Payment struct {
	ID            int64         `json:"id"`
	ReservationID int64         `json:"reservation_id"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	ProviderRef   string        `json:"provider_ref,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
