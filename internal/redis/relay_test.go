package redis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	chartIDs []string
	events   []string
	payloads []json.RawMessage
}

func (r *recordingSink) PublishMutationRaw(chartID string, event string, payload json.RawMessage) {
	r.chartIDs = append(r.chartIDs, chartID)
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

func TestRelayAppliesRemoteMutations(t *testing.T) {
	sink := &recordingSink{}
	relay := &Relay{sink: sink, instanceID: "local"}

	msg, err := json.Marshal(relayMessage{
		Instance: "remote",
		ChartID:  "chart-1",
		Event:    "chart:updated",
		Payload:  json.RawMessage(`{"id":"chart-1","name":"renamed"}`),
	})
	require.NoError(t, err)

	relay.handleMessage(string(msg))

	require.Len(t, sink.events, 1)
	assert.Equal(t, "chart-1", sink.chartIDs[0])
	assert.Equal(t, "chart:updated", sink.events[0])
	assert.JSONEq(t, `{"id":"chart-1","name":"renamed"}`, string(sink.payloads[0]))
}

func TestRelaySkipsOwnMessages(t *testing.T) {
	sink := &recordingSink{}
	relay := &Relay{sink: sink, instanceID: "local"}

	msg, err := json.Marshal(relayMessage{
		Instance: "local",
		ChartID:  "chart-1",
		Event:    "chart:updated",
		Payload:  json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	relay.handleMessage(string(msg))

	assert.Empty(t, sink.events)
}

func TestRelayIgnoresMalformedMessages(t *testing.T) {
	sink := &recordingSink{}
	relay := &Relay{sink: sink, instanceID: "local"}

	relay.handleMessage("not json")

	assert.Empty(t, sink.events)
}

func TestRelaysUseDistinctInstanceIDs(t *testing.T) {
	a := NewRelay(nil, &recordingSink{})
	b := NewRelay(nil, &recordingSink{})

	assert.NotEqual(t, a.instanceID, b.instanceID)
}
