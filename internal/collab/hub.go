package collab

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/TiRizvanov/chart-widget-backend/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	commandBuffer  = 256
)

// Options tunes the hub. Zero values fall back to defaults.
type Options struct {
	// MaxClientsPerChart caps room membership (prevents resource exhaustion).
	MaxClientsPerChart int
	// SendBuffer is the per-client outbound queue length.
	SendBuffer int
}

func (o Options) withDefaults() Options {
	if o.MaxClientsPerChart <= 0 {
		o.MaxClientsPerChart = 50
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

// hubCmd is the command interface for the hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type connectCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	replyChannel chan SessionID
}

type disconnectCmd struct {
	baseHubCmd
	sessionID SessionID
}

type inboundCmd struct {
	baseHubCmd
	sessionID SessionID
	data      []byte
}

type publishCmd struct {
	baseHubCmd
	chartID string
	event   string
	data    []byte
}

type membersCmd struct {
	baseHubCmd
	chartID      string
	replyChannel chan []SessionID
}

type currentRoomCmd struct {
	baseHubCmd
	sessionID    SessionID
	replyChannel chan string
}

type sessionCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the realtime core. One goroutine owns the session registry and the
// room directory and processes commands from a queue, so all membership
// mutations and broadcast resolutions for a room are serialized.
type Hub struct {
	cmdCh    chan hubCmd
	clock    clockwork.Clock
	registry *registry
	rooms    *directory
	opts     Options
	done     chan struct{}
}

// NewHub creates the hub and starts its command loop.
func NewHub(clock clockwork.Clock, opts Options) *Hub {
	h := &Hub{
		cmdCh:    make(chan hubCmd, commandBuffer),
		clock:    clock,
		registry: newRegistry(),
		rooms:    newDirectory(),
		opts:     opts.withDefaults(),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

// --- Public API ---

// Connect registers a new session for the connection and returns its
// identity. The session starts in no room.
func (h *Hub) Connect(conn *websocket.Conn) (SessionID, error) {
	replyCh := make(chan SessionID, 1)
	h.cmdCh <- connectCmd{connection: conn, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case id := <-replyCh:
		return id, nil
	case <-timer.Chan():
		return "", fmt.Errorf("connect command timed out after %v", commandTimeout)
	}
}

// Disconnect removes the session from every room it belongs to, notifies the
// remaining members, and releases the session. Idempotent.
func (h *Hub) Disconnect(id SessionID) {
	h.cmdCh <- disconnectCmd{sessionID: id}
}

// HandleMessage feeds one raw inbound client frame into the hub.
func (h *Hub) HandleMessage(id SessionID, data []byte) {
	h.cmdCh <- inboundCmd{sessionID: id, data: data}
}

// PublishMutation enqueues a persisted mutation event for fan-out to every
// member of the chart's room, with no sender exclusion. It never blocks on
// slow consumers and delivering to an empty room is a no-op.
func (h *Hub) PublishMutation(chartID string, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		slog.Error("Failed to marshal mutation event", "event", event, "error", err)
		return
	}
	metrics.MutationsPublished.WithLabelValues(event).Inc()
	h.cmdCh <- publishCmd{chartID: chartID, event: event, data: data}
}

// PublishMutationRaw is PublishMutation for a payload that is already
// serialized JSON (used by the cross-instance relay).
func (h *Hub) PublishMutationRaw(chartID string, event string, payload json.RawMessage) {
	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("Failed to marshal mutation event", "event", event, "error", err)
		return
	}
	h.cmdCh <- publishCmd{chartID: chartID, event: event, data: data}
}

// Members returns a snapshot of the room's member set. Returns nil if the
// command times out.
func (h *Hub) Members(chartID string) []SessionID {
	replyCh := make(chan []SessionID, 1)
	h.cmdCh <- membersCmd{chartID: chartID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case members := <-replyCh:
		return members
	case <-timer.Chan():
		slog.Warn("Members query timed out", "chart_id", chartID)
		return nil
	}
}

// CurrentRoom returns the chart the session most recently joined, or "" if
// it is in no room or unknown.
func (h *Hub) CurrentRoom(id SessionID) string {
	replyCh := make(chan string, 1)
	h.cmdCh <- currentRoomCmd{sessionID: id, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case room := <-replyCh:
		return room
	case <-timer.Chan():
		return ""
	}
}

// SessionCount returns the number of live sessions. Returns -1 on timeout.
func (h *Hub) SessionCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- sessionCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		return -1
	}
}

// Stop shuts down the hub, closing all client connections. Blocks until the
// hub goroutine has exited or the timeout is reached. Safe to call more
// than once.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- stopCmd{}:
	case <-h.done:
		return
	}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
	}
}

// --- Command loop ---

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllSessions("hub panic")
			close(h.done)
		}
	}()

	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(h.cmdCh)
			metrics.HubCommandChannelDepth.Set(float64(depth))
			if depth > commandBuffer*4/5 {
				slog.Warn("Hub command channel near capacity", "depth", depth, "capacity", commandBuffer)
			}

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case connectCmd:
				h.handleConnect(c)
			case disconnectCmd:
				h.handleDisconnect(c.sessionID)
			case inboundCmd:
				h.handleInbound(c.sessionID, c.data)
			case publishCmd:
				h.handlePublish(c)
			case membersCmd:
				c.replyChannel <- h.rooms.members(c.chartID)
			case currentRoomCmd:
				room := ""
				if s, ok := h.registry.get(c.sessionID); ok {
					room = s.currentRoom
				}
				c.replyChannel <- room
			case sessionCountCmd:
				c.replyChannel <- h.registry.count()
			case stopCmd:
				h.handleStop()
				close(h.done)
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleConnect(c connectCmd) {
	writer := newClientWriter(c.connection, h.clock, h.opts.SendBuffer)
	s := h.registry.register(writer)

	metrics.HubConnectedSessions.Set(float64(h.registry.count()))
	slog.Debug("Session connected", "session_id", s.id)

	c.replyChannel <- s.id
}

func (h *Hub) handleDisconnect(id SessionID) {
	s, ok := h.registry.get(id)
	if !ok {
		return
	}

	left := h.rooms.leaveAll(id)
	for _, chartID := range left {
		h.relay(id, chartID, EventUserLeft, presenceData{UserID: id.String()})
	}

	h.registry.unregister(id)
	s.writer.stop()

	metrics.HubConnectedSessions.Set(float64(h.registry.count()))
	metrics.HubActiveRooms.Set(float64(h.rooms.roomCount()))
	slog.Debug("Session disconnected", "session_id", id, "rooms_left", len(left))
}

func (h *Hub) handlePublish(c publishCmd) {
	h.deliver(c.chartID, c.data, "", c.event)
}

// relay encodes and fans out an event to the room, excluding the origin.
func (h *Hub) relay(origin SessionID, chartID string, event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		slog.Error("Failed to marshal relay event", "event", event, "error", err)
		return
	}
	h.deliver(chartID, frame, origin, event)
}

// deliver fans a frame out to the room's member set, excluding the given
// session (empty = deliver to all). A failed or slow member never aborts
// delivery to the rest; slow members are evicted afterwards.
func (h *Hub) deliver(chartID string, frame []byte, exclude SessionID, event string) {
	var slow []SessionID
	for _, memberID := range h.rooms.members(chartID) {
		if memberID == exclude {
			continue
		}
		member, ok := h.registry.get(memberID)
		if !ok {
			// Stale membership; disconnect already in flight.
			continue
		}
		if !member.writer.enqueue(frame) {
			slow = append(slow, memberID)
			continue
		}
		metrics.HubEventsDelivered.WithLabelValues(event).Inc()
	}

	for _, memberID := range slow {
		slog.Warn("Disconnecting slow client", "session_id", memberID, "chart_id", chartID)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleDisconnect(memberID)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "sessions", h.registry.count(), "rooms", h.rooms.roomCount())
	h.closeAllSessions("Server shutting down")
}

func (h *Hub) closeAllSessions(reason string) {
	for id, s := range h.registry.sessions {
		s.writer.stopGraceful(reason)
		delete(h.registry.sessions, id)
	}
	h.rooms = newDirectory()
	metrics.HubConnectedSessions.Set(0)
	metrics.HubActiveRooms.Set(0)
}
