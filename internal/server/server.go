// Package server exposes the REST API and the websocket endpoint over echo.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/TiRizvanov/chart-widget-backend/internal/app"
	"github.com/TiRizvanov/chart-widget-backend/internal/auth"
	"github.com/TiRizvanov/chart-widget-backend/internal/config"
	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
)

// chartService is the application surface the handlers depend on.
type chartService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	CreateChart(ctx context.Context, params app.CreateChartParams) (*domain.Chart, error)
	GetChart(ctx context.Context, chartID uuid.UUID) (*domain.Chart, error)
	ListCharts(ctx context.Context) ([]domain.Chart, error)
	UpdateChart(ctx context.Context, chartID uuid.UUID, update domain.ChartUpdate) (*domain.Chart, error)
	DeleteChart(ctx context.Context, chartID uuid.UUID) error
	DemoChart(ctx context.Context) (*domain.Chart, error)

	AddDrawing(ctx context.Context, drawing *domain.Drawing) (*domain.Drawing, error)
	ListDrawings(ctx context.Context, chartID uuid.UUID) ([]domain.Drawing, error)
	UpdateDrawing(ctx context.Context, drawingID uuid.UUID, update domain.DrawingUpdate) (*domain.Drawing, error)
	DeleteDrawing(ctx context.Context, drawingID uuid.UUID) error

	AddIndicator(ctx context.Context, indicator *domain.Indicator) (*domain.Indicator, error)
	ListIndicators(ctx context.Context, chartID uuid.UUID) ([]domain.Indicator, error)
	UpdateIndicator(ctx context.Context, indicatorID uuid.UUID, update domain.IndicatorUpdate) (*domain.Indicator, error)
	DeleteIndicator(ctx context.Context, indicatorID uuid.UUID) error

	CandleHistory(ctx context.Context, symbol string, fromMs, toMs int64, limit int) ([]domain.Candle, error)
	CandleCount(ctx context.Context) (int64, error)
	Symbols(ctx context.Context) ([]string, error)
}

// dataSeeder fills the candles table with demo data.
type dataSeeder interface {
	Run(ctx context.Context) error
}

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app    chartService
	seeder dataSeeder
	tokens *auth.Tokens

	hub socketHub

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, svc chartService, seeder dataSeeder, tokens *auth.Tokens, hub socketHub, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          svc,
		seeder:       seeder,
		tokens:       tokens,
		hub:          hub,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
