package maintenance

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bikerental/app/echoServer/validation"
	"bikerental/model"
	maintenancesvc "bikerental/service/maintenance"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ScheduleReq struct {
	BikeID      int64                 `json:"bike_id" validate:"required,gt=0"`
	StartDate   time.Time             `json:"start_date" validate:"required"`
	EndDate     time.Time             `json:"end_date" validate:"required"`
	Type        model.MaintenanceType `json:"maintenance_type" validate:"required,oneof=routine damage_repair safety_check other"`
	Description string                `json:"description"`
}

type Controller struct {
	Svc maintenancesvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/admin/maintenance?open=true
func (h *Controller) List(c echo.Context) error {
	open, _ := strconv.ParseBool(c.QueryParam("open"))
	rows, err := h.Svc.List(c.Request().Context(), open)
	if err != nil {
		return h.fail(c, "maintenance list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/maintenance
func (h *Controller) Schedule(c echo.Context) error {
	var req ScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	m, err := h.Svc.Schedule(c.Request().Context(), maintenancesvc.ScheduleInput{
		BikeID:      req.BikeID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, "maintenance schedule", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "maintenance scheduled", "data": m})
}

// POST /v1/admin/maintenance/:id/start
func (h *Controller) Start(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Start(c.Request().Context(), id); err != nil {
		return h.fail(c, "maintenance start", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "maintenance started"})
}

// POST /v1/admin/maintenance/:id/complete
func (h *Controller) Complete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Complete(c.Request().Context(), id); err != nil {
		return h.fail(c, "maintenance complete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "maintenance completed"})
}

// DELETE /v1/admin/maintenance/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "maintenance delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "maintenance record deleted"})
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch maintenancesvc.Code(err) {
	case maintenancesvc.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
	case maintenancesvc.ErrBikeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "bike not found"})
	case maintenancesvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "maintenance record not found"})
	case maintenancesvc.ErrBikeBusy:
		return c.JSON(http.StatusConflict, echo.Map{"message": "bike has active reservations"})
	case maintenancesvc.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "maintenance cannot change from its current status"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
