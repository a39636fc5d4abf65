package bike

import (
	"log/slog"
	"net/http"
	"strconv"

	"bikerental/app/echoServer/validation"
	"bikerental/model"
	bikesvc "bikerental/service/bike"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc bikesvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// List bikes
// @Summary      List fleet
// @Tags         bikes
// @Produce      json
// @Param        type      query  string  false  "bike type"
// @Param        status    query  string  false  "available | reserved | maintenance"
// @Param        min_rate  query  number  false  "minimum hourly rate"
// @Param        max_rate  query  number  false  "maximum hourly rate"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/bikes [get]
func (h *Controller) List(c echo.Context) error {
	f := model.BikeFilter{
		Type:   c.QueryParam("type"),
		Status: model.BikeStatus(c.QueryParam("status")),
	}
	var err error
	if v := c.QueryParam("min_rate"); v != "" {
		if f.MinRate, err = strconv.ParseFloat(v, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid min_rate"})
		}
	}
	if v := c.QueryParam("max_rate"); v != "" {
		if f.MaxRate, err = strconv.ParseFloat(v, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid max_rate"})
		}
	}

	rows, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "list bikes", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/bikes/types
func (h *Controller) Types(c echo.Context) error {
	types, err := h.Svc.Types(c.Request().Context())
	if err != nil {
		return h.fail(c, "bike types", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": types})
}

// Detail
// @Summary      Bike detail with recent maintenance and damage history
// @Tags         bikes
// @Produce      json
// @Param        id   path  int  true  "bike id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/bikes/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	d, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "bike detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": d})
}

// POST /v1/admin/bikes
func (h *Controller) Create(c echo.Context) error {
	var req CreateBikeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	b, err := h.Svc.Create(c.Request().Context(), bikesvc.CreateInput{
		Name:           req.Name,
		Type:           req.Type,
		Specifications: req.Specifications,
		ImagePath:      req.ImagePath,
		HourlyRate:     req.HourlyRate,
		Status:         req.Status,
	})
	if err != nil {
		return h.fail(c, "bike create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "bike created", "data": b})
}

// PATCH /v1/admin/bikes/:id/status
func (h *Controller) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "status must be available or maintenance"})
	}
	if err := h.Svc.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return h.fail(c, "bike status", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated", "status": req.Status})
}

// PATCH /v1/admin/bikes/:id/image
func (h *Controller) UpdateImage(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateImageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "image_path is required"})
	}
	if err := h.Svc.UpdateImage(c.Request().Context(), id, req.ImagePath); err != nil {
		return h.fail(c, "bike image", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "image updated"})
}

// DELETE /v1/admin/bikes/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "bike delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "bike deleted"})
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch bikesvc.Code(err) {
	case bikesvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "bike not found"})
	case bikesvc.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
	case bikesvc.ErrInvalidState:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "status must be available or maintenance"})
	case bikesvc.ErrHasActive:
		return c.JSON(http.StatusConflict, echo.Map{"message": "bike has active reservations"})
	case bikesvc.ErrHasHistory:
		return c.JSON(http.StatusConflict, echo.Map{"message": "bike has past reservations and cannot be deleted"})
	case bikesvc.ErrOpenDamages:
		return c.JSON(http.StatusConflict, echo.Map{"message": "bike has unresolved damage reports"})
	default:
		h.Log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
