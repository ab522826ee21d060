package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"theatre/internal/database"
	"theatre/internal/models"
)

type PromoRepository struct {
	db *database.DB
}

func NewPromoRepository(db *database.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

const findPromoQuery = `
		SELECT code, discount_percent, valid_until_iso
		FROM promos
		WHERE lower(code) = lower($1)`

// FindByCode matches code case-insensitively. A nil promo means no such code.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*models.Promo, error) {
	return findPromo(ctx, r.db, code)
}

// FindByCodeTx is FindByCode inside a booking transaction.
func (r *PromoRepository) FindByCodeTx(ctx context.Context, tx *sqlx.Tx, code string) (*models.Promo, error) {
	return findPromo(ctx, tx, code)
}

func findPromo(ctx context.Context, q sqlx.QueryerContext, code string) (*models.Promo, error) {
	promo := &models.Promo{}
	err := sqlx.GetContext(ctx, q, promo, findPromoQuery, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return promo, nil
}
