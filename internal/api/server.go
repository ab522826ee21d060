package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"theatre/internal/cache"
	"theatre/internal/config"
	"theatre/internal/database"
	"theatre/internal/handlers"
	"theatre/internal/messaging"
	"theatre/internal/metrics"
	"theatre/internal/middleware"
	"theatre/internal/repository"
	"theatre/internal/search"
	"theatre/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	http     *http.Server
}

// NewServer подключается к хранилищам и собирает сервер. Postgres
// обязателен; NATS, Redis и Elasticsearch подключаются, если включены.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Server{config: cfg, db: db}
	deps := service.Deps{}

	if cfg.NATSEnabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			slog.Error("NATS unavailable, order events disabled", "error", err)
		} else {
			s.nats = natsClient
			deps.Publisher = natsClient
		}
	}

	if cfg.RedisEnabled {
		valkey, err := cache.NewValkeyClient(cfg.Redis)
		if err != nil {
			slog.Error("Redis unavailable, catalog cache and stats disabled", "error", err)
		} else {
			s.valkey = valkey
			deps.Cache = valkey
			deps.Stats = valkey
		}
	}

	if cfg.Elasticsearch.Enabled {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Error("Elasticsearch unavailable, using title match", "error", err)
		} else {
			deps.Searcher = es
		}
	}

	m := metrics.New()
	repos := repository.NewRepositories(db)
	s.services = service.NewServices(db, repos, deps,
		service.WithMetrics(m),
		service.WithTimeout(cfg.BookingTimeout),
	)

	h := handlers.NewHandlers(s.services, db)
	s.router = NewRouter(h, cfg, m)
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
	}

	return s, nil
}

// NewRouter регистрирует middleware и все маршруты
func NewRouter(h *handlers.Handlers, cfg *config.Config, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(handlers.AdminTemplates())

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORSOrigin))
	router.Use(middleware.Logger())
	if m != nil {
		router.Use(middleware.Metrics(m))
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		api.GET("/actors", h.ListActors)
		api.GET("/venues", h.ListVenues)
		api.GET("/shows", h.ListShows)
		api.GET("/shows/:id", h.GetShow)

		sessions := api.Group("/sessions")
		{
			sessions.GET("/:id/occupied", h.OccupiedSeats)
			sessions.GET("/:id/stats", h.SessionStats)
		}

		api.POST("/promo/apply", h.ApplyPromo)

		orders := api.Group("/orders")
		{
			orders.POST("", h.CreateOrder)
			orders.GET("/:id", h.GetOrder)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AdminBasicAuth(cfg.Admin))
	{
		admin.GET("", h.AdminTables)
		admin.GET("/:table", h.AdminTable)
	}

	return router
}

// Run запускает HTTP сервер и блокируется до ошибки или остановки
func (s *Server) Run() error {
	slog.Info("API listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения запросов и закрывает соединения
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
