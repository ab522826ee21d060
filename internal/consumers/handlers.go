package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"theatre/internal/models"
)

// ErrMalformedEvent marks payloads that will never decode; they are acked
// and dropped instead of being redelivered.
var ErrMalformedEvent = errors.New("malformed event")

// SalesSource computes authoritative per-session sales.
type SalesSource interface {
	SalesBySession(ctx context.Context, sessionIDs []int64) ([]models.SessionStats, error)
}

// StatsSink stores per-session sales for the stats endpoint.
type StatsSink interface {
	PutSessionStats(ctx context.Context, stats []models.SessionStats) error
}

type Handlers struct {
	sales   SalesSource
	sink    StatsSink
	timeout time.Duration
}

func NewHandlers(sales SalesSource, sink StatsSink) *Handlers {
	return &Handlers{sales: sales, sink: sink, timeout: 10 * time.Second}
}

// ProcessOrderPlaced refreshes the stats of every session touched by the
// order. Reprocessing the same event is harmless.
func (h *Handlers) ProcessOrderPlaced(ctx context.Context, data []byte) error {
	var event models.OrderPlacedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.OrderID == "" || len(event.Seats) == 0 {
		return fmt.Errorf("%w: order id or seats missing", ErrMalformedEvent)
	}

	seen := make(map[int64]bool, len(event.Seats))
	ids := make([]int64, 0, len(event.Seats))
	for _, s := range event.Seats {
		if !seen[s.SessionID] {
			seen[s.SessionID] = true
			ids = append(ids, s.SessionID)
		}
	}

	stats, err := h.sales.SalesBySession(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to aggregate sales for order %s: %w", event.OrderID, err)
	}
	if err := h.sink.PutSessionStats(ctx, withZeroStats(ids, stats)); err != nil {
		return fmt.Errorf("failed to store stats for order %s: %w", event.OrderID, err)
	}

	slog.Info("Processed order placed event", "order_id", event.OrderID, "sessions", len(ids))
	return nil
}

// withZeroStats adds an empty entry for every id with no paid tickets left.
func withZeroStats(ids []int64, stats []models.SessionStats) []models.SessionStats {
	found := make(map[int64]bool, len(stats))
	for _, st := range stats {
		found[st.SessionID] = true
	}
	for _, id := range ids {
		if !found[id] {
			stats = append(stats, models.SessionStats{SessionID: id})
		}
	}
	return stats
}

func (h *Handlers) HandleOrderPlaced(m *stan.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	err := h.ProcessOrderPlaced(ctx, m.Data)
	switch {
	case errors.Is(err, ErrMalformedEvent):
		slog.Error("Dropping order placed event", "error", err, "sequence", m.Sequence)
	case err != nil:
		// Not acked: the server redelivers after AckWait.
		slog.Error("Failed to process order placed event", "error", err, "sequence", m.Sequence)
		return
	}

	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack message", "error", err, "sequence", m.Sequence)
	}
}
