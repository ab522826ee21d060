package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"theatre/internal/models"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// CatalogTTL bounds how stale cached catalog lists may get.
	CatalogTTL time.Duration
}

// ValkeyClient holds read-through catalog lists and per-session sales
// counters. It never holds occupancy: seat availability is always read
// from Postgres.
type ValkeyClient struct {
	client     redis.UniversalClient
	catalogTTL time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return NewWithClient(rdb, cfg.CatalogTTL), nil
}

// NewWithClient wraps an existing client, e.g. a redismock one.
func NewWithClient(client redis.UniversalClient, catalogTTL time.Duration) *ValkeyClient {
	return &ValkeyClient{client: client, catalogTTL: catalogTTL}
}

func catalogKey(name string) string {
	return "catalog:" + name
}

func sessionStatsKey(sessionID int64) string {
	return fmt.Sprintf("session:%d:stats", sessionID)
}

func (v *ValkeyClient) GetCatalog(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := v.client.Get(ctx, catalogKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, true, nil
}

func (v *ValkeyClient) SetCatalog(ctx context.Context, name string, payload []byte) error {
	return v.client.Set(ctx, catalogKey(name), payload, v.catalogTTL).Err()
}

func (v *ValkeyClient) InvalidateCatalog(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = catalogKey(n)
	}
	return v.client.Del(ctx, keys...).Err()
}

// PutSessionStats overwrites the counters of each given session. Counters
// are recomputed from Postgres, so replays converge on the same values.
func (v *ValkeyClient) PutSessionStats(ctx context.Context, stats []models.SessionStats) error {
	if len(stats) == 0 {
		return nil
	}

	pipe := v.client.TxPipeline()
	for _, st := range stats {
		pipe.HSet(ctx, sessionStatsKey(st.SessionID),
			"sold_seats", st.SoldSeats,
			"revenue", st.Revenue,
			"orders", st.Orders,
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session stats: %w", err)
	}
	return nil
}

func (v *ValkeyClient) SessionStats(ctx context.Context, sessionID int64) (*models.SessionStats, error) {
	fields, err := v.client.HGetAll(ctx, sessionStatsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	stats := &models.SessionStats{SessionID: sessionID}
	stats.SoldSeats = parseCounter(fields["sold_seats"])
	stats.Revenue = parseCounter(fields["revenue"])
	stats.Orders = parseCounter(fields["orders"])
	return stats, nil
}

func parseCounter(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (v *ValkeyClient) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
