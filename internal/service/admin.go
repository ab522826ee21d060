package service

import (
	"context"

	apperrors "theatre/internal/errors"
	"theatre/internal/models"
	"theatre/internal/repository"
)

type AdminService struct {
	repo *repository.InspectionRepository
}

func NewAdminService(repo *repository.InspectionRepository) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) Tables(ctx context.Context) ([]models.TableSummary, error) {
	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, apperrors.StoreUnavailable("list tables", err)
	}
	return tables, nil
}

// Table dumps one known table. Unknown names are reported as not found.
func (s *AdminService) Table(ctx context.Context, name string) (*models.TableDump, error) {
	if !repository.IsKnownTable(name) {
		return nil, apperrors.ErrNotFound
	}
	dump, err := s.repo.DumpTable(ctx, name)
	if err != nil {
		return nil, apperrors.StoreUnavailable("dump table", err)
	}
	if dump == nil {
		return nil, apperrors.ErrNotFound
	}
	return dump, nil
}
