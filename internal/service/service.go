package service

import (
	"time"

	"theatre/internal/database"
	"theatre/internal/messaging"
	"theatre/internal/repository"
)

type Services struct {
	Catalog  *CatalogService
	Bookings *BookingService
	Promos   *PromoService
	Stats    *StatsService
	Admin    *AdminService
}

// Deps are the optional collaborators of the services. Leave a field nil
// to run without it.
type Deps struct {
	Publisher messaging.Publisher
	Cache     CatalogCache
	Stats     StatsStore
	Searcher  ShowSearcher
}

func NewServices(db *database.DB, repos *repository.Repositories, deps Deps, bookingOpts ...BookingOption) *Services {
	return &Services{
		Catalog:  NewCatalogService(repos, deps.Cache, deps.Searcher),
		Bookings: NewBookingService(db, repos, deps.Publisher, bookingOpts...),
		Promos:   NewPromoService(repos.Promos, time.Now),
		Stats:    NewStatsService(deps.Stats),
		Admin:    NewAdminService(repos.Admin),
	}
}
