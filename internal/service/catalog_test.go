package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "theatre/internal/errors"
	"theatre/internal/models"
	"theatre/internal/repository"
)

type fakeCatalogCache struct {
	entries map[string][]byte
	getErr  error
	sets    int
}

func newFakeCatalogCache() *fakeCatalogCache {
	return &fakeCatalogCache{entries: map[string][]byte{}}
}

func (c *fakeCatalogCache) GetCatalog(_ context.Context, name string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	data, ok := c.entries[name]
	return data, ok, nil
}

func (c *fakeCatalogCache) SetCatalog(_ context.Context, name string, payload []byte) error {
	c.sets++
	c.entries[name] = payload
	return nil
}

type fakeSearcher struct {
	ids []int64
	err error
}

func (s *fakeSearcher) SearchShows(_ context.Context, _ string, _ int) ([]int64, error) {
	return s.ids, s.err
}

var showCols = []string{"id", "title", "poster_url", "description", "duration_min", "rating", "popularity",
	"venue_id", "genres_json", "cast_ids_json"}

var sessionCols = []string{"id", "show_id", "date_iso", "time_iso", "base_price", "dynamic_factor"}

func expectShowList(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM shows ORDER BY").
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(1, "Гамлет", nil, nil, 180, 4.5, 80, 1, []byte(`["drama"]`), []byte(`[]`)).
			AddRow(2, "Ревизор", nil, nil, 120, 4.9, 70, 1, []byte(`["comedy"]`), []byte(`[]`)))
	mock.ExpectQuery("FROM sessions ORDER BY").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(10, 1, "2025-05-01", "19:00", 3000, 1.0))
}

func TestCatalogActorsUsesCache(t *testing.T) {
	db, mock := newMockDB(t)
	cache := newFakeCatalogCache()
	svc := NewCatalogService(repository.NewRepositories(db), cache, nil)

	mock.ExpectQuery("FROM actors").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "photo_url", "bio"}).AddRow(1, "Иван", nil, nil))

	actors, err := svc.Actors(context.Background())
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.Equal(t, 1, cache.sets)

	// second call is served from the cache without touching the store
	actors, err = svc.Actors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Иван", actors[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCacheFailureFallsBackToStore(t *testing.T) {
	db, mock := newMockDB(t)
	cache := newFakeCatalogCache()
	cache.getErr = errors.New("redis down")
	svc := NewCatalogService(repository.NewRepositories(db), cache, nil)

	mock.ExpectQuery("FROM venues").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "address", "seating_json"}).
			AddRow(1, "Большой зал", "Алматы", nil, []byte(`{"rows":10}`)))

	venues, err := svc.Venues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.JSONEq(t, `{"rows":10}`, string(venues[0].SeatingMap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCorruptCacheEntryIsReloaded(t *testing.T) {
	db, mock := newMockDB(t)
	cache := newFakeCatalogCache()
	cache.entries["actors"] = []byte("not json")
	svc := NewCatalogService(repository.NewRepositories(db), cache, nil)

	mock.ExpectQuery("FROM actors").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "photo_url", "bio"}))

	actors, err := svc.Actors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, actors)

	var cached []models.Actor
	require.NoError(t, json.Unmarshal(cache.entries["actors"], &cached))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogStoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCatalogService(repository.NewRepositories(db), nil, nil)

	mock.ExpectQuery("FROM shows").WillReturnError(errors.New("connection reset"))

	_, err := svc.Shows(context.Background())
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestSearchShowsTitleFallback(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCatalogService(repository.NewRepositories(db), nil, &fakeSearcher{err: errors.New("es down")})

	expectShowList(mock)

	shows, err := svc.SearchShows(context.Background(), "гАМ")
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, "Гамлет", shows[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchShowsUsesSearcherOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCatalogService(repository.NewRepositories(db), nil, &fakeSearcher{ids: []int64{2, 99}})

	mock.ExpectQuery("FROM shows WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(2, "Ревизор", nil, nil, 120, 4.9, 70, 1, []byte(`["comedy"]`), []byte(`[]`)))
	mock.ExpectQuery("FROM sessions WHERE show_id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(sessionCols))
	mock.ExpectQuery("FROM shows WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(showCols))

	shows, err := svc.SearchShows(context.Background(), "ревизор")
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, int64(2), shows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogShowNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCatalogService(repository.NewRepositories(db), nil, nil)

	mock.ExpectQuery("FROM shows WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(showCols))

	_, err := svc.Show(context.Background(), 7)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOccupiedSeatsIsNeverCached(t *testing.T) {
	db, mock := newMockDB(t)
	cache := newFakeCatalogCache()
	svc := NewCatalogService(repository.NewRepositories(db), cache, nil)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("FROM tickets").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"row", "col"}).AddRow(3, 4))
	}

	for i := 0; i < 2; i++ {
		seats, err := svc.OccupiedSeats(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, []models.Seat{{Row: 3, Col: 4}}, seats)
	}
	assert.Zero(t, cache.sets)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err := svc.OccupiedSeats(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestPromoLookup(t *testing.T) {
	promoCols := []string{"code", "discount_percent", "valid_until_iso"}

	t.Run("valid", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewPromoService(repository.NewPromoRepository(db), func() time.Time { return fixedNow })

		mock.ExpectQuery("FROM promos").
			WithArgs("winter10").
			WillReturnRows(sqlmock.NewRows(promoCols).AddRow("WINTER10", 10, fixedNowISO))

		promo, err := svc.Lookup(context.Background(), " winter10 ")
		require.NoError(t, err)
		require.NotNil(t, promo)
		assert.Equal(t, "WINTER10", promo.Code)
	})

	t.Run("expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewPromoService(repository.NewPromoRepository(db), func() time.Time { return fixedNow })

		mock.ExpectQuery("FROM promos").
			WillReturnRows(sqlmock.NewRows(promoCols).AddRow("OLD", 50, "2024-01-01T00:00:00.000Z"))

		promo, err := svc.Lookup(context.Background(), "OLD")
		require.NoError(t, err)
		assert.Nil(t, promo)
	})

	t.Run("unknown", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewPromoService(repository.NewPromoRepository(db), nil)

		mock.ExpectQuery("FROM promos").WillReturnRows(sqlmock.NewRows(promoCols))

		promo, err := svc.Lookup(context.Background(), "NOPE")
		require.NoError(t, err)
		assert.Nil(t, promo)
	})

	t.Run("blank", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := NewPromoService(repository.NewPromoRepository(db), nil)

		_, err := svc.Lookup(context.Background(), "  ")
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("store down", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewPromoService(repository.NewPromoRepository(db), nil)

		mock.ExpectQuery("FROM promos").WillReturnError(errors.New("timeout"))

		_, err := svc.Lookup(context.Background(), "WINTER10")
		require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})
}
