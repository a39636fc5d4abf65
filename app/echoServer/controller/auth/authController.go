package auth

import (
	"log/slog"
	"net/http"

	"bikerental/app/echoServer/validation"
	"bikerental/model"
	authsvc "bikerental/service/auth"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Register a new user
// @Summary      Register user
// @Description  Register a customer account and return a JWT
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RegisterReq  true  "Register payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email already registered"
// @Failure      500  {object}  map[string]any "internal server error"
// @Router       /v1/users/register [post]
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if resp := ct.bind(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}

	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return ct.fail(c, "register", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"data":    u,
		"token":   token,
	})
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns JWT
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any "account disabled"
// @Router       /v1/users/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if resp := ct.bind(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}

	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return ct.fail(c, "login", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login success",
		"token":   token,
		"data":    u,
	})
}

// bind decodes and validates req, returning the 400 body on failure.
func (ct *Controller) bind(c echo.Context, req any) echo.Map {
	if err := c.Bind(req); err != nil {
		ct.warn(c, "bind failed", err)
		return echo.Map{"message": "invalid body"}
	}
	var err error
	if ct.V != nil {
		err = ct.V.Struct(req)
	} else {
		err = c.Validate(req)
	}
	if err != nil {
		ct.warn(c, "validation failed", err)
		return echo.Map{"message": "validation error", "errors": validation.Fields(err)}
	}
	return nil
}

func (ct *Controller) fail(c echo.Context, op string, err error) error {
	switch authsvc.Code(err) {
	case authsvc.ErrEmailTaken:
		return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
	case authsvc.ErrInvalidCreds:
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid email or password"})
	case authsvc.ErrDisabled:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "account disabled"})
	case authsvc.ErrBadInput:
		ct.warn(c, op+": bad input", err)
		msg := err.Error()
		if msg == string(authsvc.ErrBadInput) {
			msg = "bad input"
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	default:
		if ct.Log != nil {
			ct.Log.Error(op+" failed",
				"err", err,
				"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"path", c.Path(),
			)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": op + " failed"})
	}
}

func (ct *Controller) warn(c echo.Context, msg string, err error) {
	if ct.Log != nil {
		ct.Log.Warn(msg, "path", c.Path(), "err", err)
	}
}
