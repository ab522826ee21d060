package main

import (
	"context"
	"flag"
	"time"

	"theatre/internal/cache"
	"theatre/internal/config"
	"theatre/internal/database"
	"theatre/internal/logger"
	"theatre/internal/models"
	"theatre/internal/repository"
	"theatre/internal/search"
	"theatre/internal/seed"
)

var (
	dataDir = flag.String("data", "data", "Directory with actors.json, venues.json, shows.json, occupiedSeats.json, promo.json")
	force   = flag.Bool("force", false, "Replace existing catalog data")
	dryRun  = flag.Bool("dry-run", false, "Parse the data files without touching the database")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	ds, err := seed.Load(*dataDir)
	if err != nil {
		logger.Fatal("Failed to load seed data", "error", err)
	}
	log.Info("Seed data loaded",
		"actors", len(ds.Actors), "venues", len(ds.Venues), "shows", len(ds.Shows),
		"occupied", len(ds.Occupied), "promos", len(ds.Promos))

	if *dryRun {
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	seeder := seed.NewSeeder(db, func() string { return models.FormatISO(time.Now()) })

	if !*force {
		has, err := seeder.HasData(ctx)
		if err != nil {
			logger.Fatal("Failed to inspect catalog", "error", err)
		}
		if has {
			log.Info("Catalog already seeded, skipping (use -force to replace)")
			return
		}
	}

	if err := seeder.Seed(ctx, ds, *force); err != nil {
		logger.Fatal("Failed to seed catalog", "error", err)
	}
	log.Info("Catalog seeded")

	if cfg.RedisEnabled {
		if valkey, err := cache.NewValkeyClient(cfg.Redis); err != nil {
			log.Warn("Redis unavailable, catalog cache not invalidated", "error", err)
		} else {
			if err := valkey.InvalidateCatalog(ctx, "actors", "venues", "shows"); err != nil {
				log.Warn("Failed to invalidate catalog cache", "error", err)
			}
			valkey.Close()
		}
	}

	if cfg.Elasticsearch.Enabled {
		indexShows(ctx, db, cfg.Elasticsearch)
	}
}

func indexShows(ctx context.Context, db *database.DB, esCfg config.ElasticsearchConfig) {
	log := logger.Get()

	es, err := search.NewElasticsearchClient(esCfg)
	if err != nil {
		log.Warn("Elasticsearch unavailable, shows not indexed", "error", err)
		return
	}

	shows, err := repository.NewCatalogRepository(db).ListShows(ctx)
	if err != nil {
		log.Error("Failed to load shows for indexing", "error", err)
		return
	}

	indexed := 0
	for i := range shows {
		if err := es.IndexShow(ctx, &shows[i]); err != nil {
			log.Error("Failed to index show", "show_id", shows[i].ID, "error", err)
			continue
		}
		indexed++
	}
	if err := es.Refresh(ctx); err != nil {
		log.Warn("Failed to refresh show index", "error", err)
	}
	log.Info("Shows indexed", "count", indexed, "total", len(shows))
}
