package collab

import "encoding/json"

// Inbound event names (client → server).
const (
	EventJoinChart     = "join:chart"
	EventLeaveChart    = "leave:chart"
	EventCursorMove    = "cursor:move"
	EventDrawingStart  = "drawing:start"
	EventDrawingUpdate = "drawing:update"
)

// Outbound event names (server → client).
const (
	EventUserJoined     = "user:joined"
	EventUserLeft       = "user:left"
	EventCursorUpdate   = "cursor:update"
	EventDrawingStarted = "drawing:started"
	EventDrawingUpdated = "drawing:updated"
)

// Persisted mutation event names published by the CRUD layer.
const (
	EventChartCreated     = "chart:created"
	EventChartUpdated     = "chart:updated"
	EventDrawingAdded     = "drawing:added"
	EventDrawingChanged   = "drawing:updated"
	EventDrawingDeleted   = "drawing:deleted"
	EventIndicatorAdded   = "indicator:added"
	EventIndicatorUpdated = "indicator:updated"
	EventIndicatorDeleted = "indicator:deleted"
)

// envelope is the wire frame in both directions: {"event": ..., "data": ...}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// --- Inbound payloads ---

type joinPayload struct {
	ChartID string `json:"chartId"`
}

type cursorPayload struct {
	ChartID string  `json:"chartId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// drawingPayload keeps the drawing body opaque; the core never interprets it.
type drawingPayload struct {
	ChartID string          `json:"chartId"`
	Drawing json.RawMessage `json:"drawing"`
}

// --- Outbound payloads ---

type presenceData struct {
	UserID string `json:"userId"`
}

type cursorData struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type drawingData struct {
	UserID  string          `json:"userId"`
	Drawing json.RawMessage `json:"drawing"`
}

// encodeEvent marshals an outbound frame.
func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: raw})
}
