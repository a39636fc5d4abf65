package damage

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bikerental/app/echoServer/validation"
	"bikerental/model"
	damagesvc "bikerental/service/damage"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ReportReq struct {
	Description string `json:"description" validate:"required"`
	PhotoPath   string `json:"photo_path"`
}

type AdminReportReq struct {
	BikeID int64 `json:"bike_id" validate:"required,gt=0"`
	ReportReq
}

type ScheduleReq struct {
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Description string    `json:"description"`
}

type Controller struct {
	Svc damagesvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Report
// @Summary      Report damage on a bike from your reservation
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  int        true  "reservation id"
// @Param        payload  body  ReportReq  true  "Damage"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/reservations/{id}/damages [post]
func (h *Controller) Report(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "please provide a description of the damage"})
	}
	uid, _ := c.Get("user_id").(int64)

	d, err := h.Svc.Report(c.Request().Context(), uid, id, damagesvc.ReportInput{
		Description: req.Description,
		PhotoPath:   req.PhotoPath,
	})
	if err != nil {
		return h.fail(c, "damage report", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "damage reported", "data": d})
}

// GET /v1/admin/damages?status=reported
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context(), model.DamageStatus(c.QueryParam("status")))
	if err != nil {
		return h.fail(c, "damage list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/damages
func (h *Controller) AdminReport(c echo.Context) error {
	var req AdminReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	d, err := h.Svc.AdminReport(c.Request().Context(), req.BikeID, damagesvc.ReportInput{
		Description: req.Description,
		PhotoPath:   req.PhotoPath,
	})
	if err != nil {
		return h.fail(c, "admin damage report", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "damage reported", "data": d})
}

// POST /v1/admin/damages/:id/review
func (h *Controller) Review(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Review(c.Request().Context(), id); err != nil {
		return h.fail(c, "damage review", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "damage under review"})
}

// POST /v1/admin/damages/:id/resolve
func (h *Controller) Resolve(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Resolve(c.Request().Context(), id); err != nil {
		return h.fail(c, "damage resolve", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "damage resolved"})
}

// POST /v1/admin/damages/:id/schedule
func (h *Controller) Schedule(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "start_date and end_date are required"})
	}
	m, err := h.Svc.ScheduleRepair(c.Request().Context(), id, damagesvc.RepairInput{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, "damage schedule", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "repair scheduled", "data": m})
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch damagesvc.Code(err) {
	case damagesvc.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
	case damagesvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "damage report not found"})
	case damagesvc.ErrBikeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "bike not found"})
	case damagesvc.ErrReservationNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
	case damagesvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "you can only report damage on your own reservations"})
	case damagesvc.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "damage report cannot change from its current status"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
