package user

import (
	"log/slog"
	"net/http"
	"strconv"

	"bikerental/model"
	usersvc "bikerental/service/user"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc usersvc.Service
	Log *slog.Logger
}

// Me
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /v1/users/me [get]
func (h *Controller) Me(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	u, err := h.Svc.Me(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, "me", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": u})
}

// GET /v1/admin/users
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list users", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/users/:id/toggle-admin
func (h *Controller) ToggleAdmin(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	role, err := h.Svc.ToggleAdmin(c.Request().Context(), uid, id)
	if err != nil {
		return h.fail(c, "toggle admin", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "role": role})
}

// POST /v1/admin/users/:id/enable
func (h *Controller) Enable(c echo.Context) error { return h.setStatus(c, model.UserActive) }

// POST /v1/admin/users/:id/disable
func (h *Controller) Disable(c echo.Context) error { return h.setStatus(c, model.UserDisabled) }

func (h *Controller) setStatus(c echo.Context, status model.UserStatus) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.SetStatus(c.Request().Context(), uid, id, status); err != nil {
		return h.fail(c, "set user status", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated", "status": status})
}

// DELETE /v1/admin/users/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.Delete(c.Request().Context(), uid, id); err != nil {
		return h.fail(c, "delete user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch usersvc.Code(err) {
	case usersvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
	case usersvc.ErrSelf:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "you cannot change your own account"})
	case usersvc.ErrHasActive:
		return c.JSON(http.StatusConflict, echo.Map{"message": "user has active reservations"})
	case usersvc.ErrHasHistory:
		return c.JSON(http.StatusConflict, echo.Map{"message": "user has past reservations; disable the account instead"})
	case usersvc.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
	default:
		h.Log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
