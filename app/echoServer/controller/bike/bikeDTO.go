package bike

import "bikerental/model"

type CreateBikeReq struct {
	Name           string           `json:"name" validate:"required"`
	Type           string           `json:"type" validate:"required"`
	Specifications string           `json:"specifications"`
	ImagePath      string           `json:"image_path"`
	HourlyRate     float64          `json:"hourly_rate" validate:"required,gt=0"`
	Status         model.BikeStatus `json:"status" validate:"omitempty,oneof=available maintenance"`
}

type UpdateStatusReq struct {
	Status model.BikeStatus `json:"status" validate:"required,oneof=available maintenance"`
}

type UpdateImageReq struct {
	ImagePath string `json:"image_path" validate:"required"`
}
