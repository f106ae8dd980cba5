package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/TiRizvanov/chart-widget-backend/internal/metrics"
)

const mutationChannel = "chart:mutations"

// mutationSink receives mutations that originated on a peer instance.
type mutationSink interface {
	PublishMutationRaw(chartID string, event string, payload json.RawMessage)
}

// relayMessage is the wire format for mutations broadcast between instances.
type relayMessage struct {
	Instance string          `json:"instance"`
	ChartID  string          `json:"chartId"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
}

// Relay broadcasts persisted chart mutations to peer instances and feeds
// remote mutations back into the local hub. Each relay tags outgoing
// messages with its instance ID so its own broadcasts are skipped on
// the way back in.
type Relay struct {
	redis      *redis.Client
	sink       mutationSink
	instanceID string
}

// NewRelay creates a relay publishing into the given sink.
func NewRelay(redis *redis.Client, sink mutationSink) *Relay {
	return &Relay{
		redis:      redis,
		sink:       sink,
		instanceID: uuid.New().String(),
	}
}

// Start begins listening for mutations from peer instances.
// Blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	pubsub := r.redis.Subscribe(ctx, mutationChannel)
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			r.handleMessage(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage processes a single relayed mutation.
func (r *Relay) handleMessage(payload string) {
	metrics.RelayMessagesReceived.Inc()

	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Warn("Invalid relay message", "error", err)
		return
	}
	if msg.Instance == r.instanceID {
		return
	}

	r.sink.PublishMutationRaw(msg.ChartID, msg.Event, msg.Payload)
	slog.Debug("Remote mutation applied via relay",
		"chart_id", msg.ChartID,
		"event", msg.Event)
}

// Publish broadcasts a persisted mutation to all peer instances.
// This should be called after the mutation has been written to the database.
func (r *Relay) Publish(ctx context.Context, chartID string, event string, payload json.RawMessage) error {
	msg := relayMessage{
		Instance: r.instanceID,
		ChartID:  chartID,
		Event:    event,
		Payload:  payload,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal relay message: %w", err)
	}
	if err := r.redis.Publish(ctx, mutationChannel, raw).Err(); err != nil {
		metrics.RelayPublishErrors.Inc()
		return fmt.Errorf("failed to publish mutation: %w", err)
	}
	return nil
}
