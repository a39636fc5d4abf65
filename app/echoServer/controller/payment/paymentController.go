package payment

import (
	"log/slog"
	"net/http"
	"strconv"

	"bikerental/model"
	paymentsvc "bikerental/service/payment"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type PayReq struct {
	Method model.PaymentMethod `json:"payment_method" validate:"required,oneof=cod card upi"`
}

type Controller struct {
	Svc paymentsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Pay
// @Summary      Pay for a pending reservation
// @Description  Card and UPI payments are charged through the payment gateway; cod is recorded directly. Confirms the reservation.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  int     true  "reservation id"
// @Param        payload  body  PayReq  true  "Payment"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      402  {object}  map[string]any "charge declined"
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /v1/reservations/{id}/pay [post]
func (h *Controller) Pay(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req PayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "payment_method must be one of cod, card, upi"})
	}
	uid, _ := c.Get("user_id").(int64)

	p, err := h.Svc.Pay(c.Request().Context(), uid, id, req.Method)
	if err != nil {
		switch paymentsvc.Code(err) {
		case paymentsvc.ErrBadMethod:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payment method"})
		case paymentsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		case paymentsvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case paymentsvc.ErrNotPending, paymentsvc.ErrAlreadyPaid:
			return c.JSON(http.StatusConflict, echo.Map{"message": "reservation is not awaiting payment"})
		case paymentsvc.ErrChargeFailed:
			return c.JSON(http.StatusPaymentRequired, echo.Map{"message": "payment was declined"})
		default:
			h.Log.Error("payment", "err", err, "reservation_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "payment completed", "data": p})
}
