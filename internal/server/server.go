package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/campustrade/backend/internal/config"
	"github.com/campustrade/backend/internal/handler"
	"github.com/campustrade/backend/internal/mailer"
	"github.com/campustrade/backend/internal/metrics"
	appmw "github.com/campustrade/backend/internal/middleware"
	"github.com/campustrade/backend/internal/realtime"
	"github.com/campustrade/backend/internal/repository"
	"github.com/campustrade/backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Server struct {
	e      *echo.Echo
	bridge *realtime.Bridge
	rdb    *redis.Client
	log    zerolog.Logger
}

func New(db *gorm.DB, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.CORSOrigin),
	}))

	metrics.Register()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	hub := realtime.NewHub(log)
	bridge := realtime.NewBridge(hub, rdb, cfg.EventChannel, log)

	authMw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID)
	if err != nil {
		return nil, err
	}

	var apptMailer service.AppointmentMailer
	if cfg.SMTPHost != "" && authMw != nil {
		apptMailer = mailer.NewSMTPMailer(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom,
			mailer.NewAuthDirectory(authMw.Client()), log)
	}

	itemRepo := repository.NewItemRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	itemSvc := service.NewItemService(itemRepo, apptRepo, bridge, log)
	bookingSvc := service.NewBookingService(apptRepo, itemRepo, notifRepo, bridge, apptMailer, log)
	notifSvc := service.NewNotificationService(notifRepo, log)

	itemHandler := handler.NewItemHandler(itemSvc)
	apptHandler := handler.NewAppointmentHandler(bookingSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	wsHandler := handler.NewWSHandler(hub, authMw, log)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", wsHandler.Serve)

	limiter := appmw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	api := e.Group("/api")
	api.GET("/items", itemHandler.List, limiter.Middleware)
	api.GET("/items/:id", itemHandler.Get, limiter.Middleware)

	// The limiter keys buckets by uid when one is set, so it must run after
	// authentication.
	authed := e.Group("/api", limiter.Middleware)
	if authMw != nil {
		authed = e.Group("/api", authMw.RequireAuth, limiter.Middleware)
	}
	authed.POST("/items", itemHandler.Create)
	authed.PUT("/items/:id", itemHandler.Update)
	authed.DELETE("/items/:id", itemHandler.Delete)
	authed.GET("/me/items", itemHandler.ListMine)
	authed.POST("/appointments", apptHandler.Create)
	authed.GET("/appointments", apptHandler.List)
	authed.GET("/appointments/:id", apptHandler.Get)
	authed.PUT("/appointments/:id", apptHandler.Update)
	authed.DELETE("/appointments/:id", apptHandler.Cancel)
	authed.GET("/appointments/item/:itemId", apptHandler.ListByItem)
	authed.GET("/notifications", notifHandler.List)
	authed.POST("/notifications/read-all", notifHandler.MarkAllRead)
	authed.POST("/notifications/:id/read", notifHandler.MarkRead)

	return &Server{e: e, bridge: bridge, rdb: rdb, log: log}, nil
}

// Start runs the Redis event bridge (when configured) and the HTTP server.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.bridge.Run(ctx)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.rdb != nil {
		defer s.rdb.Close()
	}
	return s.e.Shutdown(ctx)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Msg("request")
			return nil
		},
	})
}

func allowOrigin(configured string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		return configured != "" && origin == configured, nil
	}
}
