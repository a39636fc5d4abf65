package echoServer

import (
	"log/slog"
	"net/http"

	"bikerental/app/echoServer/controller/auth"
	"bikerental/app/echoServer/controller/bike"
	"bikerental/app/echoServer/controller/damage"
	"bikerental/app/echoServer/controller/maintenance"
	"bikerental/app/echoServer/controller/payment"
	"bikerental/app/echoServer/controller/reservation"
	"bikerental/app/echoServer/controller/user"
	"bikerental/app/echoServer/live"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth        *auth.Controller
	User        *user.Controller
	Bike        *bike.Controller
	Reservation *reservation.Controller
	Payment     *payment.Controller
	Maintenance *maintenance.Controller
	Damage      *damage.Controller
	Live        *live.Hub
	JWTSecret   string
	Log         *slog.Logger
}

func Register(e *echo.Echo, c C) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	pub.GET("/bikes", c.Bike.List)
	pub.GET("/bikes/types", c.Bike.Types)
	pub.GET("/bikes/:id", c.Bike.Detail)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		},
	}))
	authed.Use(Identity(log))

	authed.GET("/users/me", c.User.Me)

	authed.GET("/reservations/my", c.Reservation.My)
	authed.POST("/reservations", c.Reservation.Book)
	authed.GET("/reservations/:id", c.Reservation.Get)
	authed.POST("/reservations/:id/cancel", c.Reservation.Cancel)
	authed.POST("/reservations/:id/pay", c.Payment.Pay)
	authed.POST("/reservations/:id/damages", c.Damage.Report)

	// Admin
	adm := authed.Group("/admin", RequireAdmin())

	adm.POST("/bikes", c.Bike.Create)
	adm.PATCH("/bikes/:id/status", c.Bike.UpdateStatus)
	adm.PATCH("/bikes/:id/image", c.Bike.UpdateImage)
	adm.DELETE("/bikes/:id", c.Bike.Delete)

	adm.GET("/reservations", c.Reservation.AdminList)
	adm.POST("/reservations/:id/confirm", c.Reservation.Confirm)
	adm.POST("/reservations/:id/complete", c.Reservation.Complete)
	adm.POST("/reservations/:id/cancel", c.Reservation.AdminCancel)
	adm.GET("/reports/reservations.xlsx", c.Reservation.Export)

	adm.GET("/maintenance", c.Maintenance.List)
	adm.POST("/maintenance", c.Maintenance.Schedule)
	adm.POST("/maintenance/:id/start", c.Maintenance.Start)
	adm.POST("/maintenance/:id/complete", c.Maintenance.Complete)
	adm.DELETE("/maintenance/:id", c.Maintenance.Delete)

	adm.GET("/damages", c.Damage.List)
	adm.POST("/damages", c.Damage.AdminReport)
	adm.POST("/damages/:id/review", c.Damage.Review)
	adm.POST("/damages/:id/resolve", c.Damage.Resolve)
	adm.POST("/damages/:id/schedule", c.Damage.Schedule)

	adm.GET("/users", c.User.List)
	adm.POST("/users/:id/toggle-admin", c.User.ToggleAdmin)
	adm.POST("/users/:id/enable", c.User.Enable)
	adm.POST("/users/:id/disable", c.User.Disable)
	adm.DELETE("/users/:id", c.User.Delete)

	// WebSocket handshakes carry the token in the query string, so this sits
	// outside the header-based JWT group.
	if c.Live != nil {
		e.GET("/v1/admin/live", c.Live.Handler(c.JWTSecret))
	}
}
