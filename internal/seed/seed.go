package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"

	"theatre/internal/database"
	"theatre/internal/models"
)

// Seat price and contact details recorded on orders that stand in for
// seats sold before the catalog was loaded.
const (
	seedSeatPrice = 1000
	seedPayment   = "seed"
)

type Actor struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	PhotoURL  *string `json:"photoUrl"`
	AvatarURL *string `json:"avatarUrl"`
	Bio       *string `json:"bio"`
}

type Venue struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	City       *string         `json:"city"`
	Address    *string         `json:"address"`
	SeatingMap json.RawMessage `json:"seatingMap"`
}

type Session struct {
	ID            int64    `json:"id"`
	DateISO       string   `json:"dateISO"`
	TimeISO       string   `json:"timeISO"`
	BasePrice     int64    `json:"basePrice"`
	DynamicFactor *float64 `json:"dynamicFactor"`
}

type Show struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	PosterURL   *string         `json:"posterUrl"`
	Description *string         `json:"description"`
	DurationMin *int            `json:"durationMin"`
	Rating      float64         `json:"rating"`
	Popularity  int             `json:"popularity"`
	VenueID     int64           `json:"venueId"`
	Genres      json.RawMessage `json:"genres"`
	Cast        json.RawMessage `json:"cast"`
	Sessions    []Session       `json:"sessions"`
}

type OccupiedSeats struct {
	SessionID int64         `json:"sessionId"`
	Seats     []models.Seat `json:"seats"`
}

type Promo struct {
	Code            string  `json:"code"`
	DiscountPercent int     `json:"discountPercent"`
	ValidUntilISO   *string `json:"validUntilISO"`
}

// Dataset is the whole catalog as read from the data directory.
type Dataset struct {
	Actors   []Actor
	Venues   []Venue
	Shows    []Show
	Occupied []OccupiedSeats
	Promos   []Promo
}

// Load reads actors.json, venues.json, shows.json, occupiedSeats.json and
// promo.json from dir. Every file is required.
func Load(dir string) (*Dataset, error) {
	ds := &Dataset{}
	files := []struct {
		name string
		dst  interface{}
	}{
		{"actors.json", &ds.Actors},
		{"venues.json", &ds.Venues},
		{"shows.json", &ds.Shows},
		{"occupiedSeats.json", &ds.Occupied},
		{"promo.json", &ds.Promos},
	}

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}

	return ds, nil
}

type Seeder struct {
	db  *database.DB
	now func() string
}

func NewSeeder(db *database.DB, now func() string) *Seeder {
	return &Seeder{db: db, now: now}
}

// HasData reports whether the catalog already holds shows.
func (s *Seeder) HasData(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM shows)`)
	return exists, err
}

// Seed writes ds in one transaction. With replace set, existing rows of
// every table are removed first.
func (s *Seeder) Seed(ctx context.Context, ds *Dataset, replace bool) error {
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if replace {
			if _, err := tx.ExecContext(ctx,
				`TRUNCATE tickets, orders, sessions, shows, venues, actors, promos RESTART IDENTITY CASCADE`); err != nil {
				return fmt.Errorf("failed to clear tables: %w", err)
			}
		}

		steps := []struct {
			name string
			fn   func(context.Context, *sqlx.Tx, *Dataset) error
		}{
			{"actors", insertActors},
			{"venues", insertVenues},
			{"shows", insertShows},
			{"occupied seats", s.insertOccupied},
			{"promos", insertPromos},
		}
		for _, step := range steps {
			slog.Info("Seeding", "step", step.name)
			if err := step.fn(ctx, tx, ds); err != nil {
				return fmt.Errorf("failed to seed %s: %w", step.name, err)
			}
		}
		return nil
	})
}

func insertActors(ctx context.Context, tx *sqlx.Tx, ds *Dataset) error {
	for _, a := range ds.Actors {
		name := a.Name
		if name == "" {
			name = "Актёр #" + strconv.FormatInt(a.ID, 10)
		}
		photo := a.PhotoURL
		if photo == nil {
			photo = a.AvatarURL
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO actors (id, name, photo_url, bio) VALUES ($1, $2, $3, $4)`,
			a.ID, name, photo, a.Bio); err != nil {
			return err
		}
	}
	return nil
}

func insertVenues(ctx context.Context, tx *sqlx.Tx, ds *Dataset) error {
	for _, v := range ds.Venues {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO venues (id, name, city, address, seating_json) VALUES ($1, $2, $3, $4, $5)`,
			v.ID, v.Name, v.City, v.Address, jsonOr(v.SeatingMap, "{}")); err != nil {
			return err
		}
	}
	return nil
}

func insertShows(ctx context.Context, tx *sqlx.Tx, ds *Dataset) error {
	for _, sh := range ds.Shows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shows (id, title, poster_url, description, duration_min, rating, popularity,
			                   venue_id, genres_json, cast_ids_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sh.ID, sh.Title, sh.PosterURL, sh.Description, sh.DurationMin, sh.Rating, sh.Popularity,
			sh.VenueID, jsonOr(sh.Genres, "[]"), jsonOr(sh.Cast, "[]")); err != nil {
			return err
		}

		for _, se := range sh.Sessions {
			factor := 1.0
			if se.DynamicFactor != nil {
				factor = *se.DynamicFactor
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sessions (id, show_id, date_iso, time_iso, base_price, dynamic_factor)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				se.ID, sh.ID, se.DateISO, se.TimeISO, se.BasePrice, factor); err != nil {
				return err
			}
		}
	}
	return nil
}

// insertOccupied records each session's pre-sold seats as one paid order.
func (s *Seeder) insertOccupied(ctx context.Context, tx *sqlx.Tx, ds *Dataset) error {
	for _, oc := range ds.Occupied {
		if len(oc.Seats) == 0 {
			continue
		}

		orderID := "SEED" + strconv.FormatInt(oc.SessionID, 10)
		subtotal := int64(seedSeatPrice * len(oc.Seats))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, name, email, phone, payment, subtotal, discount, total, status, created_at_iso)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			orderID, "Seed", "seed@example.com", "+0000000", seedPayment,
			subtotal, 0, subtotal, models.OrderStatusPaid, s.now()); err != nil {
			return err
		}

		for _, seat := range oc.Seats {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tickets (order_id, session_id, "row", col, price, status)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, oc.SessionID, seat.Row, seat.Col, seedSeatPrice, models.OrderStatusPaid); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertPromos(ctx context.Context, tx *sqlx.Tx, ds *Dataset) error {
	for _, p := range ds.Promos {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO promos (code, discount_percent, valid_until_iso) VALUES ($1, $2, $3)`,
			p.Code, p.DiscountPercent, p.ValidUntilISO); err != nil {
			return err
		}
	}
	return nil
}

func jsonOr(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	return string(raw)
}
