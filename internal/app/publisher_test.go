package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	events []string
	raws   []json.RawMessage
}

func (f *fakeHub) PublishMutationRaw(_ string, event string, payload json.RawMessage) {
	f.events = append(f.events, event)
	f.raws = append(f.raws, payload)
}

type fakeRelay struct {
	published chan string
}

func (f *fakeRelay) Publish(_ context.Context, _ string, event string, _ json.RawMessage) error {
	f.published <- event
	return nil
}

func TestPublisherDeliversLocally(t *testing.T) {
	hub := &fakeHub{}
	p := NewPublisher(hub, nil)

	p.PublishMutation("chart-1", "chart:updated", map[string]string{"name": "renamed"})

	require.Len(t, hub.events, 1)
	assert.Equal(t, "chart:updated", hub.events[0])
	assert.JSONEq(t, `{"name":"renamed"}`, string(hub.raws[0]))
}

func TestPublisherForwardsToRelay(t *testing.T) {
	hub := &fakeHub{}
	relay := &fakeRelay{published: make(chan string, 1)}
	p := NewPublisher(hub, relay)

	p.PublishMutation("chart-1", "drawing:added", map[string]string{})

	select {
	case event := <-relay.published:
		assert.Equal(t, "drawing:added", event)
	case <-time.After(time.Second):
		t.Fatal("relay publish not observed")
	}
	require.Len(t, hub.events, 1)
}

func TestPublisherDropsUnmarshalablePayload(t *testing.T) {
	hub := &fakeHub{}
	p := NewPublisher(hub, nil)

	p.PublishMutation("chart-1", "chart:updated", make(chan int))

	assert.Empty(t, hub.events)
}
