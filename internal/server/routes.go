package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TiRizvanov/chart-widget-backend/internal/auth"
	apperrors "github.com/TiRizvanov/chart-widget-backend/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	requireAuth := auth.Middleware(s.tokens)

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/ws", s.handleWebSocket)

	s.echo.POST("/api/auth/register", s.handleRegister)
	s.echo.POST("/api/auth/login", s.handleLogin)

	s.echo.GET("/api/charts", s.handleListCharts)
	s.echo.GET("/api/charts/demo", s.handleDemoChart)
	s.echo.GET("/api/charts/:id", s.handleGetChart)
	s.echo.POST("/api/charts", s.handleCreateChart, requireAuth)
	s.echo.PUT("/api/charts/:id", s.handleUpdateChart, requireAuth)
	s.echo.DELETE("/api/charts/:id", s.handleDeleteChart, requireAuth)

	s.echo.GET("/api/charts/:id/drawings", s.handleListDrawings)
	s.echo.POST("/api/charts/:id/drawings", s.handleAddDrawing, requireAuth)
	s.echo.PUT("/api/charts/:id/drawings/:drawingId", s.handleUpdateDrawing, requireAuth)
	s.echo.DELETE("/api/charts/:id/drawings/:drawingId", s.handleDeleteDrawing, requireAuth)

	s.echo.GET("/api/charts/:id/indicators", s.handleListIndicators)
	s.echo.POST("/api/charts/:id/indicators", s.handleAddIndicator, requireAuth)
	s.echo.PUT("/api/charts/:id/indicators/:indicatorId", s.handleUpdateIndicator, requireAuth)
	s.echo.DELETE("/api/charts/:id/indicators/:indicatorId", s.handleDeleteIndicator, requireAuth)

	s.echo.GET("/api/data/history", s.handleCandleHistory)
	s.echo.GET("/api/data/count", s.handleCandleCount)
	s.echo.GET("/api/data/symbols", s.handleSymbols)
	s.echo.POST("/api/data/seed", s.handleSeed, requireAuth)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
