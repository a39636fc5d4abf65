package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bikerental/app/echoServer/validation"
	"bikerental/model"
	reportsvc "bikerental/service/report"
	rs "bikerental/service/reservation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Controller struct {
	Svc    rs.Service
	Report reportsvc.Service
	V      *validator.Validate
	Log    *slog.Logger
}

// Book
// @Summary      Book a bike
// @Description  Holds an available bike and creates a pending reservation. Amount is ceil(hours) x hourly rate.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  BookReq  true  "Booking"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "bike not available"
// @Router       /v1/reservations [post]
func (h *Controller) Book(c echo.Context) error {
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	res, err := h.Svc.Book(c.Request().Context(), uid, rs.BookInput{
		BikeID:          req.BikeID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	})
	if err != nil {
		return h.fail(c, "reservation book", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "reservation created", "data": res})
}

// GET /v1/reservations/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.My(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, "my reservations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reservations/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)

	v, err := h.Svc.Get(c.Request().Context(), uid, role == string(model.RoleAdmin), id)
	if err != nil {
		return h.fail(c, "reservation get", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": v})
}

// POST /v1/reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		return h.fail(c, "reservation cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

// GET /v1/admin/reservations
func (h *Controller) AdminList(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	rows, err := h.Svc.AdminList(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "admin reservations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/reservations/:id/confirm
func (h *Controller) Confirm(c echo.Context) error {
	return h.adminAction(c, "confirmed", h.Svc.Confirm)
}

// POST /v1/admin/reservations/:id/complete
func (h *Controller) Complete(c echo.Context) error {
	return h.adminAction(c, "completed", h.Svc.Complete)
}

// POST /v1/admin/reservations/:id/cancel
func (h *Controller) AdminCancel(c echo.Context) error {
	return h.adminAction(c, "cancelled", h.Svc.AdminCancel)
}

func (h *Controller) adminAction(c echo.Context, done string, fn func(context.Context, int64) error) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := fn(c.Request().Context(), id); err != nil {
		return h.fail(c, "reservation "+done, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation " + done})
}

// Export
// @Summary      Export reservations as XLSX
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status  query  string  false  "reservation status"
// @Param        from    query  string  false  "start time lower bound (YYYY-MM-DD or RFC3339)"
// @Param        to      query  string  false  "start time upper bound (exclusive)"
// @Success      200  {file}  file
// @Router       /v1/admin/reports/reservations.xlsx [get]
func (h *Controller) Export(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	if err := rs.ValidateFilter(f); err != nil {
		return h.fail(c, "reservation export", err)
	}
	out, err := h.Report.ExportReservations(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("reservation export", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	name := fmt.Sprintf("reservations-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, xlsxMIME, out)
}

func parseFilter(c echo.Context) (model.ReservationFilter, error) {
	f := model.ReservationFilter{Status: model.ReservationStatus(c.QueryParam("status"))}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		t, err := parseTime(v)
		if err != nil {
			return f, fmt.Errorf("invalid %s", p.name)
		}
		*p.dst = &t
	}
	return f, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch rs.Code(err) {
	case rs.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
	case rs.ErrBikeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "bike not found"})
	case rs.ErrBikeUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "this bike is no longer available"})
	case rs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
	case rs.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case rs.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "reservation cannot change from its current status"})
	default:
		h.Log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
