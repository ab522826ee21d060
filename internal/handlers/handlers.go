package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"theatre/internal/database"
	apperrors "theatre/internal/errors"
	"theatre/internal/logger"
	"theatre/internal/models"
	"theatre/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogService interface {
	Actors(ctx context.Context) ([]models.Actor, error)
	Venues(ctx context.Context) ([]models.Venue, error)
	Shows(ctx context.Context) ([]models.Show, error)
	SearchShows(ctx context.Context, query string) ([]models.Show, error)
	Show(ctx context.Context, id int64) (*models.Show, error)
	OccupiedSeats(ctx context.Context, sessionID int64) ([]models.Seat, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

type PromoService interface {
	Lookup(ctx context.Context, code string) (*models.Promo, error)
}

type StatsService interface {
	SessionStats(ctx context.Context, sessionID int64) (*models.SessionStats, error)
}

type AdminService interface {
	Tables(ctx context.Context) ([]models.TableSummary, error)
	Table(ctx context.Context, name string) (*models.TableDump, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthCheck
}

type Handlers struct {
	catalog CatalogService
	orders  OrderService
	promos  PromoService
	stats   StatsService
	admin   AdminService
	health  HealthChecker
}

func NewHandlers(services *service.Services, health HealthChecker) *Handlers {
	return &Handlers{
		catalog: services.Catalog,
		orders:  services.Bookings,
		promos:  services.Promos,
		stats:   services.Stats,
		admin:   services.Admin,
		health:  health,
	}
}

// Health - GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	check := h.health.HealthCheck(c.Request.Context())
	if check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": check.Status, "missing_tables": check.MissingTables})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "db": check.Status, "pool": check.Stats})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, models.ErrorResponse{OK: false, Error: msg})
}

// respondServiceError maps service errors onto statuses. notFound is the
// message used for apperrors.ErrNotFound. Store failures never leak their cause.
func respondServiceError(c *gin.Context, err error, notFound string) {
	var reqErr *apperrors.RequestError
	var conflict *apperrors.SeatConflictError

	switch {
	case errors.As(err, &reqErr):
		respondError(c, http.StatusBadRequest, reqErr.Reason)
	case errors.As(err, &conflict):
		respondError(c, http.StatusConflict, conflict.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrSeatConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, notFound)
	default:
		logger.WithContext(c.Request.Context()).Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		respondError(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
	}
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
