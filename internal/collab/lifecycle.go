package collab

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/TiRizvanov/chart-widget-backend/internal/metrics"
)

// ServeConn drives the connection lifecycle for an upgraded websocket:
// register, pump inbound frames into the hub, and disconnect when the
// connection closes. Blocks until the connection is gone.
func (h *Hub) ServeConn(conn *websocket.Conn) {
	id, err := h.Connect(conn)
	if err != nil {
		slog.Error("Failed to register session", "error", err)
		_ = conn.Close()
		return
	}
	defer h.Disconnect(id)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.HandleMessage(id, data)
	}
}

// handleInbound validates and dispatches one client frame. Runs on the hub
// goroutine. Protocol and state errors never fail the connection: the frame
// is dropped and the session stays open.
func (h *Hub) handleInbound(id SessionID, data []byte) {
	s, ok := h.registry.get(id)
	if !ok {
		// Disconnect raced ahead of a queued frame.
		return
	}

	if !s.limiter.Allow() {
		metrics.HubEventsDropped.WithLabelValues("rate_limited").Inc()
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.HubEventsDropped.WithLabelValues("malformed").Inc()
		return
	}

	switch env.Event {
	case EventJoinChart:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChartID == "" {
			metrics.HubEventsDropped.WithLabelValues("malformed").Inc()
			return
		}
		h.handleJoin(s, p.ChartID)

	case EventLeaveChart:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChartID == "" {
			metrics.HubEventsDropped.WithLabelValues("malformed").Inc()
			return
		}
		h.handleLeave(s, p.ChartID)

	case EventCursorMove:
		var p cursorPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChartID == "" {
			metrics.HubEventsDropped.WithLabelValues("malformed").Inc()
			return
		}
		if !h.rooms.isMember(id, p.ChartID) {
			metrics.HubEventsDropped.WithLabelValues("not_member").Inc()
			return
		}
		h.relay(id, p.ChartID, EventCursorUpdate, cursorData{UserID: id.String(), X: p.X, Y: p.Y})

	case EventDrawingStart, EventDrawingUpdate:
		var p drawingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChartID == "" {
			metrics.HubEventsDropped.WithLabelValues("malformed").Inc()
			return
		}
		if !h.rooms.isMember(id, p.ChartID) {
			metrics.HubEventsDropped.WithLabelValues("not_member").Inc()
			return
		}
		outbound := EventDrawingStarted
		if env.Event == EventDrawingUpdate {
			outbound = EventDrawingUpdated
		}
		h.relay(id, p.ChartID, outbound, drawingData{UserID: id.String(), Drawing: p.Drawing})

	default:
		metrics.HubEventsDropped.WithLabelValues("unknown_event").Inc()
	}
}

func (h *Hub) handleJoin(s *session, chartID string) {
	if !h.rooms.isMember(s.id, chartID) && h.rooms.memberCount(chartID) >= h.opts.MaxClientsPerChart {
		slog.Warn("Rejecting join: room full", "session_id", s.id, "chart_id", chartID, "max_clients", h.opts.MaxClientsPerChart)
		metrics.HubEventsDropped.WithLabelValues("room_full").Inc()
		return
	}

	added, size := h.rooms.join(s.id, chartID)
	s.currentRoom = chartID
	if !added {
		return
	}

	metrics.HubActiveRooms.Set(float64(h.rooms.roomCount()))
	slog.Debug("Session joined chart", "session_id", s.id, "chart_id", chartID, "members", size)

	h.relay(s.id, chartID, EventUserJoined, presenceData{UserID: s.id.String()})
}

func (h *Hub) handleLeave(s *session, chartID string) {
	wasMember := h.rooms.leave(s.id, chartID)
	if s.currentRoom == chartID {
		s.currentRoom = ""
	}
	if !wasMember {
		// Stale client state; accept as a no-op.
		return
	}

	metrics.HubActiveRooms.Set(float64(h.rooms.roomCount()))
	slog.Debug("Session left chart", "session_id", s.id, "chart_id", chartID)

	h.relay(s.id, chartID, EventUserLeft, presenceData{UserID: s.id.String()})
}
