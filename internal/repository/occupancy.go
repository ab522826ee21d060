package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"theatre/internal/database"
	"theatre/internal/models"
)

// OccupancyRepository answers which seats of a session are held by an
// active (pending or paid) order. Nothing is cached: every call hits the store.
type OccupancyRepository struct {
	db *database.DB
}

func NewOccupancyRepository(db *database.DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

const isOccupiedQuery = `
		SELECT EXISTS (
			SELECT 1
			FROM tickets t
			JOIN orders o ON o.id = t.order_id
			WHERE t.session_id = $1 AND t."row" = $2 AND t.col = $3
			  AND o.status IN ('pending', 'paid')
		)`

// IsOccupied must run on the same transaction that later inserts the claim.
func (r *OccupancyRepository) IsOccupied(ctx context.Context, tx *sqlx.Tx, sessionID int64, row, col int) (bool, error) {
	var occupied bool
	if err := tx.QueryRowxContext(ctx, isOccupiedQuery, sessionID, row, col).Scan(&occupied); err != nil {
		return false, err
	}
	return occupied, nil
}

func (r *OccupancyRepository) ListOccupied(ctx context.Context, sessionID int64) ([]models.Seat, error) {
	seats := []models.Seat{}
	query := `
		SELECT t."row", t.col
		FROM tickets t
		JOIN orders o ON o.id = t.order_id
		WHERE t.session_id = $1 AND o.status IN ('pending', 'paid')
		ORDER BY t."row", t.col`

	if err := r.db.SelectContext(ctx, &seats, query, sessionID); err != nil {
		return nil, err
	}
	return seats, nil
}
