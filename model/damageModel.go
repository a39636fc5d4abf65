// model/damage.go
package model

import "time"

type DamageStatus string

const (
	DamageReported    DamageStatus = "reported"
	DamageUnderReview DamageStatus = "under_review"
	DamageResolved    DamageStatus = "resolved"
)

type Damage struct {
	ID            int64        `json:"id"`
	BikeID        int64        `json:"bike_id"`
	BikeName      string       `json:"bike_name,omitempty"`
	UserID        *int64       `json:"user_id,omitempty"`
	ReservationID *int64       `json:"reservation_id,omitempty"`
	Description   string       `json:"description"`
	PhotoPath     string       `json:"photo_path,omitempty"`
	Status        DamageStatus `json:"status"`
	ReportedAt    time.Time    `json:"reported_at"`
}
