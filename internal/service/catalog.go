package service

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "theatre/internal/errors"
	"theatre/internal/logger"
	"theatre/internal/models"
	"theatre/internal/repository"
)

// CatalogCache stores serialized catalog lists.
type CatalogCache interface {
	GetCatalog(ctx context.Context, name string) ([]byte, bool, error)
	SetCatalog(ctx context.Context, name string, payload []byte) error
}

// ShowSearcher finds show ids for a free-text query, best match first.
type ShowSearcher interface {
	SearchShows(ctx context.Context, query string, limit int) ([]int64, error)
}

const searchLimit = 20

type CatalogService struct {
	catalogRepo   *repository.CatalogRepository
	occupancyRepo *repository.OccupancyRepository
	cache         CatalogCache
	searcher      ShowSearcher
}

// NewCatalogService accepts nil cache and searcher.
func NewCatalogService(repos *repository.Repositories, cache CatalogCache, searcher ShowSearcher) *CatalogService {
	return &CatalogService{
		catalogRepo:   repos.Catalog,
		occupancyRepo: repos.Occupancy,
		cache:         cache,
		searcher:      searcher,
	}
}

func (s *CatalogService) Actors(ctx context.Context) ([]models.Actor, error) {
	return cachedList(ctx, s.cache, "actors", s.catalogRepo.ListActors)
}

func (s *CatalogService) Venues(ctx context.Context) ([]models.Venue, error) {
	return cachedList(ctx, s.cache, "venues", s.catalogRepo.ListVenues)
}

func (s *CatalogService) Shows(ctx context.Context) ([]models.Show, error) {
	return cachedList(ctx, s.cache, "shows", s.catalogRepo.ListShows)
}

// SearchShows falls back to a title match over the full list when no
// search backend is configured or it fails.
func (s *CatalogService) SearchShows(ctx context.Context, query string) ([]models.Show, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Shows(ctx)
	}

	if s.searcher != nil {
		ids, err := s.searcher.SearchShows(ctx, query, searchLimit)
		if err == nil {
			shows, err := s.catalogRepo.GetShowsByIDs(ctx, ids)
			if err != nil {
				return nil, apperrors.StoreUnavailable("load shows", err)
			}
			return shows, nil
		}
		logger.WithContext(ctx).Warn("Show search failed, using title match", "error", err)
	}

	all, err := s.Shows(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matched := []models.Show{}
	for _, show := range all {
		if strings.Contains(strings.ToLower(show.Title), needle) {
			matched = append(matched, show)
		}
	}
	return matched, nil
}

func (s *CatalogService) Show(ctx context.Context, id int64) (*models.Show, error) {
	show, err := s.catalogRepo.GetShow(ctx, id)
	if err != nil {
		return nil, apperrors.StoreUnavailable("get show", err)
	}
	if show == nil {
		return nil, apperrors.ErrNotFound
	}
	return show, nil
}

// OccupiedSeats always reads the store; occupancy is never cached.
func (s *CatalogService) OccupiedSeats(ctx context.Context, sessionID int64) ([]models.Seat, error) {
	if sessionID < 1 {
		return nil, apperrors.InvalidRequest("invalid session id")
	}
	seats, err := s.occupancyRepo.ListOccupied(ctx, sessionID)
	if err != nil {
		return nil, apperrors.StoreUnavailable("list occupied seats", err)
	}
	return seats, nil
}

// cachedList serves name from cache when possible, otherwise loads it and
// fills the cache. Cache failures are logged and never fail the request.
func cachedList[T any](ctx context.Context, cache CatalogCache, name string, load func(context.Context) ([]T, error)) ([]T, error) {
	log := logger.WithContext(ctx)

	if cache != nil {
		data, ok, err := cache.GetCatalog(ctx, name)
		if err != nil {
			log.Warn("Catalog cache read failed", "name", name, "error", err)
		} else if ok {
			var items []T
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
			log.Warn("Catalog cache entry is corrupt", "name", name)
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, apperrors.StoreUnavailable("list "+name, err)
	}

	if cache != nil {
		data, err := json.Marshal(items)
		if err == nil {
			err = cache.SetCatalog(ctx, name, data)
		}
		if err != nil {
			log.Warn("Catalog cache write failed", "name", name, "error", err)
		}
	}
	return items, nil
}
