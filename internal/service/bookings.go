package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"theatre/internal/database"
	apperrors "theatre/internal/errors"
	"theatre/internal/logger"
	"theatre/internal/messaging"
	"theatre/internal/metrics"
	"theatre/internal/models"
	"theatre/internal/repository"
)

type BookingService struct {
	db            *database.DB
	orderRepo     *repository.OrderRepository
	occupancyRepo *repository.OccupancyRepository
	promoRepo     *repository.PromoRepository
	publisher     messaging.Publisher
	metrics       *metrics.Metrics
	timeout       time.Duration

	now   func() time.Time
	newID func() (string, error)
}

type BookingOption func(*BookingService)

// WithClock overrides the time source used for created_at and promo expiry.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithIDGenerator(gen func() (string, error)) BookingOption {
	return func(s *BookingService) { s.newID = gen }
}

func WithMetrics(m *metrics.Metrics) BookingOption {
	return func(s *BookingService) { s.metrics = m }
}

// WithTimeout bounds one booking transaction. Zero means no extra bound.
func WithTimeout(d time.Duration) BookingOption {
	return func(s *BookingService) { s.timeout = d }
}

func NewBookingService(db *database.DB, repos *repository.Repositories, publisher messaging.Publisher, opts ...BookingOption) *BookingService {
	s := &BookingService{
		db:            db,
		orderRepo:     repos.Orders,
		occupancyRepo: repos.Occupancy,
		promoRepo:     repos.Promos,
		publisher:     publisher,
		now:           time.Now,
		newID:         NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder claims every requested seat and records a paid order in one
// transaction. Either all seats are claimed or none are.
func (s *BookingService) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.PlaceOrderResult, error) {
	log := logger.WithContext(ctx)

	if err := validatePlaceOrder(&req); err != nil {
		s.countOutcome(metrics.OutcomeInvalid)
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.now()
	nowISO := models.FormatISO(now)
	order := &models.Order{
		Name:         req.Customer.Name,
		Email:        req.Customer.Email,
		Phone:        req.Customer.Phone,
		Payment:      req.Payment,
		Status:       models.OrderStatusPaid,
		CreatedAtISO: nowISO,
	}

	var appliedPromo string
	start := time.Now()
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, it := range req.Items {
			occupied, err := s.occupancyRepo.IsOccupied(ctx, tx, it.SessionID, it.Row, it.Col)
			if err != nil {
				return fmt.Errorf("failed to check seat: %w", err)
			}
			if occupied {
				return &apperrors.SeatConflictError{SessionID: it.SessionID, Row: it.Row, Col: it.Col}
			}
		}

		percent := 0
		if req.PromoCode != "" {
			promo, err := s.promoRepo.FindByCodeTx(ctx, tx, req.PromoCode)
			if err != nil {
				return fmt.Errorf("failed to resolve promo: %w", err)
			}
			if promo != nil && promo.AppliesAt(nowISO) {
				percent = promo.DiscountPercent
				appliedPromo = promo.Code
			}
		}

		pricing := models.ComputePricing(req.Items, percent)
		order.Subtotal = pricing.Subtotal
		order.Discount = pricing.Discount
		order.Total = pricing.Total

		id, err := s.newID()
		if err != nil {
			return err
		}
		order.ID = id

		if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, it := range req.Items {
			ticket := &models.Ticket{
				OrderID:   order.ID,
				SessionID: it.SessionID,
				Row:       it.Row,
				Col:       it.Col,
				Price:     it.Price,
			}
			if err := s.orderRepo.CreateTicketTx(ctx, tx, ticket, order.Status); err != nil {
				return err
			}
			order.Tickets = append(order.Tickets, *ticket)
		}

		return nil
	})
	if s.metrics != nil {
		s.metrics.BookingDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSeatConflict):
			log.Info("Seat conflict", "error", err)
			s.countOutcome(metrics.OutcomeConflict)
			return nil, err
		case errors.Is(err, apperrors.ErrInvalidRequest):
			s.countOutcome(metrics.OutcomeInvalid)
			return nil, err
		default:
			log.Error("Failed to place order", "error", err)
			s.countOutcome(metrics.OutcomeUnavailable)
			return nil, apperrors.StoreUnavailable("place order", err)
		}
	}

	s.countOutcome(metrics.OutcomeSuccess)
	if s.metrics != nil {
		s.metrics.SeatsSoldTotal.Add(float64(len(order.Tickets)))
	}
	log.Info("Order placed", "order_id", order.ID, "seats", len(order.Tickets), "total", order.Total)

	s.publishPlaced(ctx, order, appliedPromo, now)

	return &models.PlaceOrderResult{OrderID: order.ID, Total: order.Total}, nil
}

// GetOrder returns a committed order with its tickets.
func (s *BookingService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.StoreUnavailable("get order", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound
	}

	tickets, err := s.orderRepo.GetTickets(ctx, id)
	if err != nil {
		return nil, apperrors.StoreUnavailable("get order tickets", err)
	}
	order.Tickets = tickets

	return order, nil
}

func (s *BookingService) publishPlaced(ctx context.Context, order *models.Order, promoCode string, at time.Time) {
	if s.publisher == nil {
		return
	}

	event := models.OrderPlacedEvent{
		OrderID:   order.ID,
		Total:     order.Total,
		Discount:  order.Discount,
		PromoCode: promoCode,
		Seats:     make([]models.OrderedSeat, 0, len(order.Tickets)),
		Timestamp: at.UTC(),
	}
	for _, t := range order.Tickets {
		event.Seats = append(event.Seats, models.OrderedSeat{
			SessionID: t.SessionID,
			Row:       t.Row,
			Col:       t.Col,
			Price:     t.Price,
		})
	}

	// The order is committed; a lost event only delays stats.
	if err := s.publisher.Publish(models.EventOrderPlaced, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

func (s *BookingService) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.OrdersTotal.WithLabelValues(outcome).Inc()
	}
}

func validatePlaceOrder(req *models.PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return apperrors.InvalidRequest("No items")
	}
	if !req.Customer.Complete() {
		return apperrors.InvalidRequest("Invalid customer")
	}
	var subtotal int64
	for i, it := range req.Items {
		if it.SessionID < 1 {
			return apperrors.InvalidRequest(fmt.Sprintf("item %d: invalid sessionId", i))
		}
		if it.Row < 1 || it.Col < 1 {
			return apperrors.InvalidRequest(fmt.Sprintf("item %d: invalid seat", i))
		}
		if it.Price < 0 {
			return apperrors.InvalidRequest(fmt.Sprintf("item %d: negative price", i))
		}
		if it.Price > models.MaxAmount {
			return apperrors.InvalidRequest(fmt.Sprintf("item %d: price too large", i))
		}
		// each price is at most MaxAmount, so the running sum cannot wrap
		subtotal += it.Price
		if subtotal > models.MaxAmount {
			return apperrors.InvalidRequest("Order total too large")
		}
	}

	req.Payment = strings.TrimSpace(req.Payment)
	if req.Payment == "" {
		req.Payment = models.DefaultPaymentLabel
	}
	req.PromoCode = strings.TrimSpace(req.PromoCode)
	return nil
}
