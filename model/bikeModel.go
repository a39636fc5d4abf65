// model/bike.go
package model

import "time"

type BikeStatus string

const (
	BikeAvailable   BikeStatus = "available"
	BikeReserved    BikeStatus = "reserved"
	BikeMaintenance BikeStatus = "maintenance"
)

type Bike struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Specifications string     `json:"specifications"`
	ImagePath      string     `json:"image_path"`
	HourlyRate     float64    `json:"hourly_rate"`
	Status         BikeStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BikeFilter narrows the fleet listing. Zero values are ignored.
type BikeFilter struct {
	Type    string
	Status  BikeStatus
	MinRate float64
	MaxRate float64
}

// BikeDetail is a bike with its recent service history.
type BikeDetail struct {
	Bike
	TotalReservations int64         `json:"total_reservations"`
	Maintenance       []Maintenance `json:"maintenance"`
	Damages           []Damage      `json:"damages"`
}
