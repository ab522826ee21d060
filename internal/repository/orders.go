package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"theatre/internal/database"
	apperrors "theatre/internal/errors"
	"theatre/internal/models"
)

// Postgres SQLSTATEs the booking path distinguishes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// ActiveSeatConstraint is the partial unique index guarding active seat claims.
const ActiveSeatConstraint = "tickets_active_seat_uidx"

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (id, name, email, phone, payment, subtotal, discount, total, status, created_at_iso)
		VALUES (:id, :name, :email, :phone, :payment, :subtotal, :discount, :total, :status, :created_at_iso)`

	_, err := tx.NamedExecContext(ctx, query, order)
	return err
}

// CreateTicketTx records one seat claim. A concurrent claim on the same
// seat surfaces as *errors.SeatConflictError, an unknown session as an
// invalid request.
func (r *OrderRepository) CreateTicketTx(ctx context.Context, tx *sqlx.Tx, ticket *models.Ticket, status string) error {
	query := `
		INSERT INTO tickets (order_id, session_id, "row", col, price, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.ExecContext(ctx, query,
		ticket.OrderID,
		ticket.SessionID,
		ticket.Row,
		ticket.Col,
		ticket.Price,
		status,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case string(pqErr.Code) == uniqueViolation && pqErr.Constraint == ActiveSeatConstraint:
			return &apperrors.SeatConflictError{SessionID: ticket.SessionID, Row: ticket.Row, Col: ticket.Col}
		case string(pqErr.Code) == foreignKeyViolation:
			return apperrors.InvalidRequest(fmt.Sprintf("unknown session %d", ticket.SessionID))
		}
	}
	return err
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, name, email, phone, payment, subtotal, discount, total, status, created_at_iso
		FROM orders
		WHERE id = $1`

	err := r.db.GetContext(ctx, order, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) GetTickets(ctx context.Context, orderID string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	query := `
		SELECT order_id, session_id, "row", col, price
		FROM tickets
		WHERE order_id = $1
		ORDER BY id`

	if err := r.db.SelectContext(ctx, &tickets, query, orderID); err != nil {
		return nil, err
	}
	return tickets, nil
}

// SalesBySession aggregates paid tickets per session. With no ids it
// covers every session that has sales.
func (r *OrderRepository) SalesBySession(ctx context.Context, sessionIDs []int64) ([]models.SessionStats, error) {
	query := `
		SELECT t.session_id,
		       COUNT(*) AS sold_seats,
		       COALESCE(SUM(t.price), 0) AS revenue,
		       COUNT(DISTINCT t.order_id) AS orders
		FROM tickets t
		JOIN orders o ON o.id = t.order_id
		WHERE o.status = 'paid'`

	args := []interface{}{}
	if len(sessionIDs) > 0 {
		query += ` AND t.session_id = ANY($1)`
		args = append(args, pq.Array(sessionIDs))
	}
	query += `
		GROUP BY t.session_id
		ORDER BY t.session_id`

	stats := []models.SessionStats{}
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, err
	}
	return stats, nil
}
