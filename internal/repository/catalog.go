package repository

import (
	"context"
	"database/sql"
	"errors"

	"theatre/internal/database"
	"theatre/internal/models"
)

type CatalogRepository struct {
	db *database.DB
}

func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const sessionColumns = `id, show_id, date_iso, time_iso, base_price, dynamic_factor`

const showColumns = `id, title, poster_url, description, duration_min, rating, popularity,
		       venue_id, genres_json, cast_ids_json`

func (r *CatalogRepository) ListActors(ctx context.Context) ([]models.Actor, error) {
	actors := []models.Actor{}
	query := `SELECT id, name, photo_url, bio FROM actors ORDER BY id`
	if err := r.db.SelectContext(ctx, &actors, query); err != nil {
		return nil, err
	}
	return actors, nil
}

func (r *CatalogRepository) ListVenues(ctx context.Context) ([]models.Venue, error) {
	venues := []models.Venue{}
	query := `SELECT id, name, city, address, seating_json FROM venues ORDER BY id`
	if err := r.db.SelectContext(ctx, &venues, query); err != nil {
		return nil, err
	}
	return venues, nil
}

// ListShows returns shows by popularity and rating, each with its sessions.
func (r *CatalogRepository) ListShows(ctx context.Context) ([]models.Show, error) {
	shows := []models.Show{}
	query := `SELECT ` + showColumns + ` FROM shows ORDER BY popularity DESC, rating DESC`
	if err := r.db.SelectContext(ctx, &shows, query); err != nil {
		return nil, err
	}

	var sessions []models.Session
	sessQuery := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY date_iso, time_iso`
	if err := r.db.SelectContext(ctx, &sessions, sessQuery); err != nil {
		return nil, err
	}

	grouped := make(map[int64][]models.Session, len(shows))
	for _, s := range sessions {
		grouped[s.ShowID] = append(grouped[s.ShowID], s)
	}
	for i := range shows {
		shows[i].Sessions = grouped[shows[i].ID]
		if shows[i].Sessions == nil {
			shows[i].Sessions = []models.Session{}
		}
	}

	return shows, nil
}

// GetShowsByIDs keeps the order of ids; unknown ids are skipped.
func (r *CatalogRepository) GetShowsByIDs(ctx context.Context, ids []int64) ([]models.Show, error) {
	result := make([]models.Show, 0, len(ids))
	for _, id := range ids {
		show, err := r.GetShow(ctx, id)
		if err != nil {
			return nil, err
		}
		if show != nil {
			result = append(result, *show)
		}
	}
	return result, nil
}

func (r *CatalogRepository) GetShow(ctx context.Context, id int64) (*models.Show, error) {
	show := &models.Show{}
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`
	err := r.db.GetContext(ctx, show, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sessions, err := r.ListSessions(ctx, id)
	if err != nil {
		return nil, err
	}
	show.Sessions = sessions

	return show, nil
}

func (r *CatalogRepository) ListSessions(ctx context.Context, showID int64) ([]models.Session, error) {
	sessions := []models.Session{}
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE show_id = $1 ORDER BY date_iso, time_iso`
	if err := r.db.SelectContext(ctx, &sessions, query, showID); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *CatalogRepository) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	session := &models.Session{}
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	err := r.db.GetContext(ctx, session, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
