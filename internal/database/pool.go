package database

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/lib/pq"
)

const healthTimeout = 3 * time.Second

// PoolStats is the slice of sql.DBStats exposed by the health endpoint.
type PoolStats struct {
	MaxOpen      int           `json:"max_open"`
	Open         int           `json:"open"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

type HealthCheck struct {
	Status        string        `json:"status"`
	Latency       time.Duration `json:"latency"`
	Error         string        `json:"error,omitempty"`
	MissingTables []string      `json:"missing_tables,omitempty"`
	Stats         PoolStats     `json:"pool"`
}

func (db *DB) Pool() PoolStats {
	s := db.Stats()
	return PoolStats{
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

// HealthCheck is healthy only when the store answers and every table in
// RequiredTables exists.
func (db *DB) HealthCheck(ctx context.Context) HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	start := time.Now()
	missing, err := db.MissingTables(ctx)
	check := HealthCheck{
		Status:        "healthy",
		Latency:       time.Since(start),
		MissingTables: missing,
		Stats:         db.Pool(),
	}

	switch {
	case err != nil:
		check.Status = "unhealthy"
		check.Error = err.Error()
		slog.Error("Database health check failed", "error", err)
	case len(missing) > 0:
		check.Status = "unhealthy"
		check.Error = "schema not migrated"
		slog.Error("Database schema incomplete", "missing_tables", missing)
	}

	warnOnPressure(check.Stats)
	return check
}

// MissingTables lists the RequiredTables absent from the current schema.
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	var present []string
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ANY($1)`
	if err := db.SelectContext(ctx, &present, query, pq.Array(RequiredTables)); err != nil {
		return nil, err
	}

	var missing []string
	for _, t := range RequiredTables {
		if !slices.Contains(present, t) {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

func warnOnPressure(s PoolStats) {
	if s.MaxOpen > 0 && s.InUse*10 >= s.MaxOpen*9 {
		slog.Warn("Connection pool nearly exhausted", "in_use", s.InUse, "max_open", s.MaxOpen)
	}
	if s.WaitCount > 0 && s.WaitDuration > time.Second {
		slog.Warn("Booking requests waiting for connections",
			"wait_count", s.WaitCount, "wait_duration", s.WaitDuration)
	}
}
