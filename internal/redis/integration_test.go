package redis

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

var testRedisURL string

func TestMain(m *testing.M) {
	// Parse flags to check for -short
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	os.Exit(m.Run())
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, err := NewClient(context.Background(), testRedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type channelSink struct {
	events chan string
}

func (c *channelSink) PublishMutationRaw(_ string, event string, _ json.RawMessage) {
	c.events <- event
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestRelayRoundTripBetweenInstances(t *testing.T) {
	clientA := setupTestClient(t)
	clientB := setupTestClient(t)

	sinkA := &channelSink{events: make(chan string, 4)}
	sinkB := &channelSink{events: make(chan string, 4)}
	relayA := NewRelay(clientA, sinkA)
	relayB := NewRelay(clientB, sinkB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relayA.Start(ctx)
	go relayB.Start(ctx)

	// Give the subscribers a moment to attach before publishing.
	time.Sleep(200 * time.Millisecond)

	err := relayA.Publish(ctx, "chart-1", "chart:updated", json.RawMessage(`{"name":"renamed"}`))
	require.NoError(t, err)

	select {
	case event := <-sinkB.events:
		assert.Equal(t, "chart:updated", event)
	case <-time.After(3 * time.Second):
		t.Fatal("remote instance did not receive the mutation")
	}

	// The publishing instance must not loop its own mutation back in.
	select {
	case event := <-sinkA.events:
		t.Fatalf("unexpected loopback delivery: %s", event)
	case <-time.After(300 * time.Millisecond):
	}
}
