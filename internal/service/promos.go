package service

import (
	"context"
	"strings"
	"time"

	apperrors "theatre/internal/errors"
	"theatre/internal/models"
	"theatre/internal/repository"
)

type PromoService struct {
	promoRepo *repository.PromoRepository
	now       func() time.Time
}

func NewPromoService(promoRepo *repository.PromoRepository, now func() time.Time) *PromoService {
	if now == nil {
		now = time.Now
	}
	return &PromoService{promoRepo: promoRepo, now: now}
}

// Lookup returns the promo for code when it exists and has not expired.
// A nil promo with a nil error means the code does not apply.
func (s *PromoService) Lookup(ctx context.Context, code string) (*models.Promo, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidRequest("Missing code")
	}

	promo, err := s.promoRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.StoreUnavailable("lookup promo", err)
	}
	if promo == nil || !promo.AppliesAt(models.FormatISO(s.now())) {
		return nil, nil
	}
	return promo, nil
}
