package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/TiRizvanov/chart-widget-backend/internal/app"
	"github.com/TiRizvanov/chart-widget-backend/internal/auth"
	"github.com/TiRizvanov/chart-widget-backend/internal/config"
	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
)

// mockService implements chartService with overridable functions. Methods
// without an override fail loudly via the zero function value, which keeps
// tests honest about what they exercise.
type mockService struct {
	registerFn        func(ctx context.Context, email, password, name string) (*domain.User, string, error)
	loginFn           func(ctx context.Context, email, password string) (*domain.User, string, error)
	createChartFn     func(ctx context.Context, params app.CreateChartParams) (*domain.Chart, error)
	getChartFn        func(ctx context.Context, chartID uuid.UUID) (*domain.Chart, error)
	listChartsFn      func(ctx context.Context) ([]domain.Chart, error)
	updateChartFn     func(ctx context.Context, chartID uuid.UUID, update domain.ChartUpdate) (*domain.Chart, error)
	deleteChartFn     func(ctx context.Context, chartID uuid.UUID) error
	demoChartFn       func(ctx context.Context) (*domain.Chart, error)
	addDrawingFn      func(ctx context.Context, drawing *domain.Drawing) (*domain.Drawing, error)
	listDrawingsFn    func(ctx context.Context, chartID uuid.UUID) ([]domain.Drawing, error)
	updateDrawingFn   func(ctx context.Context, drawingID uuid.UUID, update domain.DrawingUpdate) (*domain.Drawing, error)
	deleteDrawingFn   func(ctx context.Context, drawingID uuid.UUID) error
	addIndicatorFn    func(ctx context.Context, indicator *domain.Indicator) (*domain.Indicator, error)
	listIndicatorsFn  func(ctx context.Context, chartID uuid.UUID) ([]domain.Indicator, error)
	updateIndicatorFn func(ctx context.Context, indicatorID uuid.UUID, update domain.IndicatorUpdate) (*domain.Indicator, error)
	deleteIndicatorFn func(ctx context.Context, indicatorID uuid.UUID) error
	candleHistoryFn   func(ctx context.Context, symbol string, fromMs, toMs int64, limit int) ([]domain.Candle, error)
	candleCountFn     func(ctx context.Context) (int64, error)
	symbolsFn         func(ctx context.Context) ([]string, error)
}

func (m *mockService) Register(ctx context.Context, email, password, name string) (*domain.User, string, error) {
	return m.registerFn(ctx, email, password, name)
}

func (m *mockService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockService) CreateChart(ctx context.Context, params app.CreateChartParams) (*domain.Chart, error) {
	return m.createChartFn(ctx, params)
}

func (m *mockService) GetChart(ctx context.Context, chartID uuid.UUID) (*domain.Chart, error) {
	return m.getChartFn(ctx, chartID)
}

func (m *mockService) ListCharts(ctx context.Context) ([]domain.Chart, error) {
	return m.listChartsFn(ctx)
}

func (m *mockService) UpdateChart(ctx context.Context, chartID uuid.UUID, update domain.ChartUpdate) (*domain.Chart, error) {
	return m.updateChartFn(ctx, chartID, update)
}

func (m *mockService) DeleteChart(ctx context.Context, chartID uuid.UUID) error {
	return m.deleteChartFn(ctx, chartID)
}

func (m *mockService) DemoChart(ctx context.Context) (*domain.Chart, error) {
	return m.demoChartFn(ctx)
}

func (m *mockService) AddDrawing(ctx context.Context, drawing *domain.Drawing) (*domain.Drawing, error) {
	return m.addDrawingFn(ctx, drawing)
}

func (m *mockService) ListDrawings(ctx context.Context, chartID uuid.UUID) ([]domain.Drawing, error) {
	return m.listDrawingsFn(ctx, chartID)
}

func (m *mockService) UpdateDrawing(ctx context.Context, drawingID uuid.UUID, update domain.DrawingUpdate) (*domain.Drawing, error) {
	return m.updateDrawingFn(ctx, drawingID, update)
}

func (m *mockService) DeleteDrawing(ctx context.Context, drawingID uuid.UUID) error {
	return m.deleteDrawingFn(ctx, drawingID)
}

func (m *mockService) AddIndicator(ctx context.Context, indicator *domain.Indicator) (*domain.Indicator, error) {
	return m.addIndicatorFn(ctx, indicator)
}

func (m *mockService) ListIndicators(ctx context.Context, chartID uuid.UUID) ([]domain.Indicator, error) {
	return m.listIndicatorsFn(ctx, chartID)
}

func (m *mockService) UpdateIndicator(ctx context.Context, indicatorID uuid.UUID, update domain.IndicatorUpdate) (*domain.Indicator, error) {
	return m.updateIndicatorFn(ctx, indicatorID, update)
}

func (m *mockService) DeleteIndicator(ctx context.Context, indicatorID uuid.UUID) error {
	return m.deleteIndicatorFn(ctx, indicatorID)
}

func (m *mockService) CandleHistory(ctx context.Context, symbol string, fromMs, toMs int64, limit int) ([]domain.Candle, error) {
	return m.candleHistoryFn(ctx, symbol, fromMs, toMs, limit)
}

func (m *mockService) CandleCount(ctx context.Context) (int64, error) {
	return m.candleCountFn(ctx)
}

func (m *mockService) Symbols(ctx context.Context) ([]string, error) {
	return m.symbolsFn(ctx)
}

type mockSeeder struct {
	runFn func(ctx context.Context) error
}

func (m *mockSeeder) Run(ctx context.Context) error {
	if m.runFn == nil {
		return nil
	}
	return m.runFn(ctx)
}

type noopHub struct{}

func (noopHub) ServeConn(conn *websocket.Conn) {
	_ = conn.Close()
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:      "test",
		Port:        "0",
		CORSOrigins: []string{"http://localhost:3001"},
	}
}

func newTestServer(svc chartService) (*Server, *auth.Tokens) {
	tokens := auth.NewTokens("test-secret", time.Hour, clockwork.NewRealClock())
	return NewServer(testConfig(), svc, &mockSeeder{}, tokens, noopHub{}, nil), tokens
}
