// Package app implements the application service: chart/drawing/indicator
// CRUD, account registration, and market data access. Every persisted
// mutation is announced to the chart's room through the publisher.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/TiRizvanov/chart-widget-backend/internal/auth"
	"github.com/TiRizvanov/chart-widget-backend/internal/collab"
	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
)

const (
	demoChartName       = "Demo Chart"
	defaultChartType    = "candlestick"
	defaultTimeframe    = "1h"
	defaultHistoryLimit = 500
	maxHistoryLimit     = 2000
)

// Service wires repositories, auth, and the mutation publisher together.
type Service struct {
	charts     domain.ChartRepository
	drawings   domain.DrawingRepository
	indicators domain.IndicatorRepository
	users      domain.UserRepository
	candles    domain.CandleRepository
	publisher  domain.MutationPublisher
	tokens     *auth.Tokens

	demoGroup singleflight.Group
}

// NewService creates the application service.
func NewService(
	charts domain.ChartRepository,
	drawings domain.DrawingRepository,
	indicators domain.IndicatorRepository,
	users domain.UserRepository,
	candles domain.CandleRepository,
	publisher domain.MutationPublisher,
	tokens *auth.Tokens,
) *Service {
	return &Service{
		charts:     charts,
		drawings:   drawings,
		indicators: indicators,
		users:      users,
		candles:    candles,
		publisher:  publisher,
		tokens:     tokens,
	}
}

// --- Accounts ---

// Register creates a user account and returns it with a signed access token.
func (s *Service) Register(ctx context.Context, email, password, name string) (*domain.User, string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// --- Charts ---

// CreateChartParams carries the fields accepted on chart creation.
type CreateChartParams struct {
	Name      string
	Symbol    string
	ChartType string
	Timeframe string
	Settings  json.RawMessage
}

// CreateChart persists a chart and announces it to the chart's room.
func (s *Service) CreateChart(ctx context.Context, params CreateChartParams) (*domain.Chart, error) {
	if params.ChartType == "" {
		params.ChartType = defaultChartType
	}
	if params.Timeframe == "" {
		params.Timeframe = defaultTimeframe
	}

	chart, err := s.charts.Create(ctx, &domain.Chart{
		Name:      params.Name,
		Symbol:    params.Symbol,
		ChartType: params.ChartType,
		Timeframe: params.Timeframe,
		Settings:  params.Settings,
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMutation(chart.ID.String(), collab.EventChartCreated, chart)
	return chart, nil
}

// GetChart returns one chart by ID.
func (s *Service) GetChart(ctx context.Context, chartID uuid.UUID) (*domain.Chart, error) {
	return s.charts.GetByID(ctx, chartID)
}

// ListCharts returns all charts.
func (s *Service) ListCharts(ctx context.Context) ([]domain.Chart, error) {
	return s.charts.List(ctx)
}

// UpdateChart applies a partial update and announces the new state.
func (s *Service) UpdateChart(ctx context.Context, chartID uuid.UUID, update domain.ChartUpdate) (*domain.Chart, error) {
	chart, err := s.charts.Update(ctx, chartID, update)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMutation(chart.ID.String(), collab.EventChartUpdated, chart)
	return chart, nil
}

// DeleteChart removes a chart. Drawings and indicators go with it via
// cascading deletes.
func (s *Service) DeleteChart(ctx context.Context, chartID uuid.UUID) error {
	return s.charts.Delete(ctx, chartID)
}

// DemoChart returns the shared demo chart, creating it on first access.
// Concurrent first calls collapse into a single create.
func (s *Service) DemoChart(ctx context.Context) (*domain.Chart, error) {
	result, err, _ := s.demoGroup.Do(demoChartName, func() (any, error) {
		chart, err := s.charts.GetByName(ctx, demoChartName)
		if err == nil {
			return chart, nil
		}
		if !errors.Is(err, domain.ErrChartNotFound) {
			return nil, err
		}
		return s.charts.Create(ctx, &domain.Chart{
			Name:      demoChartName,
			Symbol:    "BTCUSD",
			ChartType: defaultChartType,
			Timeframe: defaultTimeframe,
		})
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Chart), nil
}

// --- Drawings ---

// AddDrawing persists a drawing on a chart and announces it.
func (s *Service) AddDrawing(ctx context.Context, drawing *domain.Drawing) (*domain.Drawing, error) {
	if _, err := s.charts.GetByID(ctx, drawing.ChartID); err != nil {
		return nil, err
	}

	created, err := s.drawings.Create(ctx, drawing)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMutation(created.ChartID.String(), collab.EventDrawingAdded, created)
	return created, nil
}

// ListDrawings returns all drawings on a chart.
func (s *Service) ListDrawings(ctx context.Context, chartID uuid.UUID) ([]domain.Drawing, error) {
	return s.drawings.ListByChart(ctx, chartID)
}

// UpdateDrawing applies a partial update and announces the new state.
func (s *Service) UpdateDrawing(ctx context.Context, drawingID uuid.UUID, update domain.DrawingUpdate) (*domain.Drawing, error) {
	drawing, err := s.drawings.Update(ctx, drawingID, update)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMutation(drawing.ChartID.String(), collab.EventDrawingChanged, drawing)
	return drawing, nil
}

// DeleteDrawing removes a drawing and announces the deletion by ID.
func (s *Service) DeleteDrawing(ctx context.Context, drawingID uuid.UUID) error {
	drawing, err := s.drawings.GetByID(ctx, drawingID)
	if err != nil {
		return err
	}
	if err := s.drawings.Delete(ctx, drawingID); err != nil {
		return err
	}

	s.publisher.PublishMutation(drawing.ChartID.String(), collab.EventDrawingDeleted, deletedPayload{ID: drawingID.String()})
	return nil
}

// --- Indicators ---

// AddIndicator persists an indicator on a chart and announces it.
func (s *Service) AddIndicator(ctx context.Context, indicator *domain.Indicator) (*domain.Indicator, error) {
	if _, err := s.charts.GetByID(ctx, indicator.ChartID); err != nil {
		return nil, err
	}

	created, err := s.indicators.Create(ctx, indicator)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMutation(created.ChartID.String(), collab.EventIndicatorAdded, created)
	return created, nil
}

// ListIndicators returns all indicators on a chart.
func (s *Service) ListIndicators(ctx context.Context, chartID uuid.UUID) ([]domain.Indicator, error) {
	return s.indicators.ListByChart(ctx, chartID)
}

// UpdateIndicator applies a partial update and announces the new state.
func (s *Service) UpdateIndicator(ctx context.Context, indicatorID uuid.UUID, update domain.IndicatorUpdate) (*domain.Indicator, error) {
	indicator, err := s.indicators.Update(ctx, indicatorID, update)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMutation(indicator.ChartID.String(), collab.EventIndicatorUpdated, indicator)
	return indicator, nil
}

// DeleteIndicator removes an indicator and announces the deletion by ID.
func (s *Service) DeleteIndicator(ctx context.Context, indicatorID uuid.UUID) error {
	indicator, err := s.indicators.GetByID(ctx, indicatorID)
	if err != nil {
		return err
	}
	if err := s.indicators.Delete(ctx, indicatorID); err != nil {
		return err
	}

	s.publisher.PublishMutation(indicator.ChartID.String(), collab.EventIndicatorDeleted, deletedPayload{ID: indicatorID.String()})
	return nil
}

// deletedPayload announces a removed entity by ID only.
type deletedPayload struct {
	ID string `json:"id"`
}

// --- Market data ---

// CandleHistory returns candles for a symbol within [fromMs, toMs].
// A zero limit falls back to the default; limits are capped.
func (s *Service) CandleHistory(ctx context.Context, symbol string, fromMs, toMs int64, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.candles.Range(ctx, symbol, fromMs, toMs, limit)
}

// CandleCount returns the total number of stored candles.
func (s *Service) CandleCount(ctx context.Context) (int64, error) {
	return s.candles.Count(ctx)
}

// Symbols returns the distinct symbols with stored candles.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	return s.candles.Symbols(ctx)
}
