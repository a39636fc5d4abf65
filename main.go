// Package main bike rental API.
//
// @title           Bike Rental API
// @version         1.0
// @description     Bike catalogue, reservations, payments, maintenance and damage tracking.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikerental/app/echoServer"
	authctrl "bikerental/app/echoServer/controller/auth"
	bikectrl "bikerental/app/echoServer/controller/bike"
	damagectrl "bikerental/app/echoServer/controller/damage"
	maintctrl "bikerental/app/echoServer/controller/maintenance"
	paymentctrl "bikerental/app/echoServer/controller/payment"
	resctrl "bikerental/app/echoServer/controller/reservation"
	userctrl "bikerental/app/echoServer/controller/user"
	"bikerental/app/echoServer/live"
	"bikerental/app/echoServer/validation"
	"bikerental/config"
	_ "bikerental/docs"
	authrepo "bikerental/repository/auth"
	bikerepo "bikerental/repository/bike"
	damagerepo "bikerental/repository/damage"
	"bikerental/repository/events"
	gatewayrepo "bikerental/repository/gateway"
	maintrepo "bikerental/repository/maintenance"
	paymentrepo "bikerental/repository/payment"
	resrepo "bikerental/repository/reservation"
	userrepo "bikerental/repository/user"
	authsvc "bikerental/service/auth"
	bikesvc "bikerental/service/bike"
	damagesvc "bikerental/service/damage"
	maintsvc "bikerental/service/maintenance"
	paymentsvc "bikerental/service/payment"
	reportsvc "bikerental/service/report"
	ressvc "bikerental/service/reservation"
	usersvc "bikerental/service/user"
	"bikerental/util/database"
	"bikerental/util/httpx"
	"bikerental/util/lock"
	"bikerental/util/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: pgxpool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx, cfg.MigrationsDir, log); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// booking lock
	var locker lock.Locker = lock.Noop{}
	if cfg.Redis.Address != "" {
		rc, err := lock.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}
		defer rc.Close()
		locker = lock.NewRedis(rc, log)
	}

	// events
	hub := live.NewHub(log)
	pub := events.Fanout{hub}
	if cfg.RabbitMQ.URL != "" {
		rmq, err := events.NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Error("rabbitmq connect failed", "err", err)
			os.Exit(1)
		}
		defer rmq.Close()
		pub = append(pub, rmq)
	}

	// payment gateway
	gw := gatewayrepo.NewStub()
	if cfg.Payment.GatewayURL != "" {
		gw = gatewayrepo.NewHTTP(cfg.Payment.GatewayURL, cfg.Payment.APIKey, httpx.New(cfg.Payment.Timeout))
	} else {
		log.Warn("PAYMENT_GATEWAY_URL not set, using stub gateway")
	}

	// repos
	ar := authrepo.New(db)
	ur := userrepo.New(db)
	br := bikerepo.New(db)
	rr := resrepo.New(db)
	pr := paymentrepo.New(db)
	mr := maintrepo.New(db)
	dr := damagerepo.New(db)

	// services
	as := authsvc.New(ar, cfg.JWT.Secret, cfg.JWT.TTLHours)
	us := usersvc.New(db, ur)
	bs := bikesvc.New(db, br, pub, log)
	resDeps := ressvc.Deps{
		DB: db, Repo: rr, Bikes: br,
		Locker: locker, LockTTL: cfg.Rental.LockTTL,
		Pub: pub, Metrics: m, Log: log,
	}
	rs := ressvc.New(resDeps)
	ps := paymentsvc.New(paymentsvc.Deps{
		DB: db, Reservations: rr, Payments: pr, Gateway: gw,
		Pub: pub, Metrics: m, Log: log,
	})
	ms := maintsvc.New(maintsvc.Deps{
		DB: db, Repo: mr, Bikes: br,
		Pub: pub, Metrics: m, Log: log,
	})
	ds := damagesvc.New(damagesvc.Deps{
		DB: db, Repo: dr, Reservations: rr, Bikes: br, Maintenance: mr,
		Pub: pub, Metrics: m, Log: log,
	})
	reps := reportsvc.New(rr)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := as.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Error("admin bootstrap failed", "err", err)
			os.Exit(1)
		}
		log.Info("admin account ready", "email", cfg.Admin.Email)
	}

	// controllers
	v := validation.Engine()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, Log: log}
	bikeC := &bikectrl.Controller{Svc: bs, V: v, Log: log}
	resC := &resctrl.Controller{Svc: rs, Report: reps, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, V: v, Log: log}
	maintC := &maintctrl.Controller{Svc: ms, V: v, Log: log}
	damageC := &damagectrl.Controller{Svc: ds, V: v, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, m)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		if err := db.Pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":  "degraded",
				"message": "database unreachable",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		User:        userC,
		Bike:        bikeC,
		Reservation: resC,
		Payment:     paymentC,
		Maintenance: maintC,
		Damage:      damageC,
		Live:        hub,

		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	// pending reservations past the payment window free their bike
	cleaner := ressvc.NewCleaner(resDeps, cfg.Rental.PendingTTL)
	go cleaner.Run(ctx, cfg.Rental.CleanupInterval)

	go func() {
		log.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Info("server stopped")
}
