package repository

import (
	"theatre/internal/database"
)

type Repositories struct {
	Catalog   *CatalogRepository
	Occupancy *OccupancyRepository
	Promos    *PromoRepository
	Orders    *OrderRepository
	Admin     *InspectionRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Catalog:   NewCatalogRepository(db),
		Occupancy: NewOccupancyRepository(db),
		Promos:    NewPromoRepository(db),
		Orders:    NewOrderRepository(db),
		Admin:     NewInspectionRepository(db),
	}
}
