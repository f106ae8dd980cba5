package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/TiRizvanov/chart-widget-backend/internal/metrics"
)

// localHub is the realtime core's mutation surface.
type localHub interface {
	PublishMutationRaw(chartID string, event string, payload json.RawMessage)
}

// mutationRelay broadcasts mutations to peer instances.
type mutationRelay interface {
	Publish(ctx context.Context, chartID string, event string, payload json.RawMessage) error
}

// Publisher fans persisted mutations out to the local hub and, when a relay
// is configured, to peer instances. Local delivery never blocks on Redis.
type Publisher struct {
	hub   localHub
	relay mutationRelay
}

// NewPublisher creates a publisher. relay may be nil when running without Redis.
func NewPublisher(hub localHub, relay mutationRelay) *Publisher {
	return &Publisher{hub: hub, relay: relay}
}

// PublishMutation announces a persisted mutation to the chart's room on this
// instance and asynchronously to peers.
func (p *Publisher) PublishMutation(chartID string, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal mutation payload", "event", event, "error", err)
		return
	}

	p.hub.PublishMutationRaw(chartID, event, raw)
	metrics.MutationsPublished.WithLabelValues(event).Inc()

	if p.relay == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.relay.Publish(ctx, chartID, event, raw); err != nil {
			slog.Error("Failed to relay mutation", "event", event, "chart_id", chartID, "error", err)
		}
	}()
}
