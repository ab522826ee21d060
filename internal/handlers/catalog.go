package handlers

import (
	"net/http"

	"theatre/internal/models"

	"github.com/gin-gonic/gin"
)

// ListActors - GET /api/actors
// Получить список актеров
func (h *Handlers) ListActors(c *gin.Context) {
	actors, err := h.catalog.Actors(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, actors)
}

// ListVenues - GET /api/venues
// Получить список площадок
func (h *Handlers) ListVenues(c *gin.Context) {
	venues, err := h.catalog.Venues(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, venues)
}

// ListShows - GET /api/shows?query=
// Получить афишу с сеансами; query включает полнотекстовый поиск
func (h *Handlers) ListShows(c *gin.Context) {
	var (
		shows []models.Show
		err   error
	)
	if query := c.Query("query"); query != "" {
		shows, err = h.catalog.SearchShows(c.Request.Context(), query)
	} else {
		shows, err = h.catalog.Shows(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, shows)
}

// GetShow - GET /api/shows/:id
func (h *Handlers) GetShow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	show, err := h.catalog.Show(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Show not found")
		return
	}
	c.JSON(http.StatusOK, show)
}

// OccupiedSeats - GET /api/sessions/:id/occupied
// Занятые места сеанса, всегда из базы
func (h *Handlers) OccupiedSeats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	seats, err := h.catalog.OccupiedSeats(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, models.OccupiedSeatsResponse{SessionID: id, Seats: seats})
}

// SessionStats - GET /api/sessions/:id/stats
func (h *Handlers) SessionStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.stats.SessionStats(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
