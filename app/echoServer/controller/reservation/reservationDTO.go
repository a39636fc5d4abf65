package reservation

import "time"

type BookReq struct {
	BikeID          int64     `json:"bike_id" validate:"required,gt=0"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	PickupLocation  string    `json:"pickup_location" validate:"required"`
	DropoffLocation string    `json:"dropoff_location" validate:"required"`
}
