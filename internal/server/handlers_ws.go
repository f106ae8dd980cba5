package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for embedded chart widgets
	},
}

// socketHub owns the lifetime of upgraded connections.
type socketHub interface {
	ServeConn(conn *websocket.Conn)
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	// ServeConn blocks for the lifetime of the connection and cleans up
	// membership on exit.
	s.hub.ServeConn(conn)
	return nil
}
