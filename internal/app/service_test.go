package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TiRizvanov/chart-widget-backend/internal/auth"
	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
)

// --- Fakes ---

type recordingPublisher struct {
	chartIDs []string
	events   []string
	payloads []any
}

func (r *recordingPublisher) PublishMutation(chartID string, event string, payload any) {
	r.chartIDs = append(r.chartIDs, chartID)
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

type fakeChartRepo struct {
	byID   map[uuid.UUID]*domain.Chart
	byName map[string]*domain.Chart
}

func newFakeChartRepo() *fakeChartRepo {
	return &fakeChartRepo{
		byID:   make(map[uuid.UUID]*domain.Chart),
		byName: make(map[string]*domain.Chart),
	}
}

func (f *fakeChartRepo) Create(_ context.Context, chart *domain.Chart) (*domain.Chart, error) {
	stored := *chart
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.byID[stored.ID] = &stored
	f.byName[stored.Name] = &stored
	return &stored, nil
}

func (f *fakeChartRepo) GetByID(_ context.Context, chartID uuid.UUID) (*domain.Chart, error) {
	chart, ok := f.byID[chartID]
	if !ok {
		return nil, domain.ErrChartNotFound
	}
	return chart, nil
}

func (f *fakeChartRepo) GetByName(_ context.Context, name string) (*domain.Chart, error) {
	chart, ok := f.byName[name]
	if !ok {
		return nil, domain.ErrChartNotFound
	}
	return chart, nil
}

func (f *fakeChartRepo) List(context.Context) ([]domain.Chart, error) {
	charts := make([]domain.Chart, 0, len(f.byID))
	for _, chart := range f.byID {
		charts = append(charts, *chart)
	}
	return charts, nil
}

func (f *fakeChartRepo) Update(_ context.Context, chartID uuid.UUID, update domain.ChartUpdate) (*domain.Chart, error) {
	chart, ok := f.byID[chartID]
	if !ok {
		return nil, domain.ErrChartNotFound
	}
	if update.Name != nil {
		chart.Name = *update.Name
	}
	if update.ChartType != nil {
		chart.ChartType = *update.ChartType
	}
	if update.Timeframe != nil {
		chart.Timeframe = *update.Timeframe
	}
	if update.Settings != nil {
		chart.Settings = update.Settings
	}
	return chart, nil
}

func (f *fakeChartRepo) Delete(_ context.Context, chartID uuid.UUID) error {
	if _, ok := f.byID[chartID]; !ok {
		return domain.ErrChartNotFound
	}
	delete(f.byID, chartID)
	return nil
}

type fakeDrawingRepo struct {
	byID map[uuid.UUID]*domain.Drawing
}

func newFakeDrawingRepo() *fakeDrawingRepo {
	return &fakeDrawingRepo{byID: make(map[uuid.UUID]*domain.Drawing)}
}

func (f *fakeDrawingRepo) Create(_ context.Context, drawing *domain.Drawing) (*domain.Drawing, error) {
	stored := *drawing
	stored.ID = uuid.New()
	f.byID[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeDrawingRepo) GetByID(_ context.Context, drawingID uuid.UUID) (*domain.Drawing, error) {
	drawing, ok := f.byID[drawingID]
	if !ok {
		return nil, domain.ErrDrawingNotFound
	}
	return drawing, nil
}

func (f *fakeDrawingRepo) ListByChart(_ context.Context, chartID uuid.UUID) ([]domain.Drawing, error) {
	var drawings []domain.Drawing
	for _, d := range f.byID {
		if d.ChartID == chartID {
			drawings = append(drawings, *d)
		}
	}
	return drawings, nil
}

func (f *fakeDrawingRepo) Update(_ context.Context, drawingID uuid.UUID, update domain.DrawingUpdate) (*domain.Drawing, error) {
	drawing, ok := f.byID[drawingID]
	if !ok {
		return nil, domain.ErrDrawingNotFound
	}
	if update.Visible != nil {
		drawing.Visible = *update.Visible
	}
	if update.Coordinates != nil {
		drawing.Coordinates = update.Coordinates
	}
	return drawing, nil
}

func (f *fakeDrawingRepo) Delete(_ context.Context, drawingID uuid.UUID) error {
	if _, ok := f.byID[drawingID]; !ok {
		return domain.ErrDrawingNotFound
	}
	delete(f.byID, drawingID)
	return nil
}

type fakeIndicatorRepo struct {
	byID map[uuid.UUID]*domain.Indicator
}

func newFakeIndicatorRepo() *fakeIndicatorRepo {
	return &fakeIndicatorRepo{byID: make(map[uuid.UUID]*domain.Indicator)}
}

func (f *fakeIndicatorRepo) Create(_ context.Context, indicator *domain.Indicator) (*domain.Indicator, error) {
	stored := *indicator
	stored.ID = uuid.New()
	f.byID[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeIndicatorRepo) GetByID(_ context.Context, indicatorID uuid.UUID) (*domain.Indicator, error) {
	indicator, ok := f.byID[indicatorID]
	if !ok {
		return nil, domain.ErrIndicatorNotFound
	}
	return indicator, nil
}

func (f *fakeIndicatorRepo) ListByChart(_ context.Context, chartID uuid.UUID) ([]domain.Indicator, error) {
	var indicators []domain.Indicator
	for _, ind := range f.byID {
		if ind.ChartID == chartID {
			indicators = append(indicators, *ind)
		}
	}
	return indicators, nil
}

func (f *fakeIndicatorRepo) Update(_ context.Context, indicatorID uuid.UUID, update domain.IndicatorUpdate) (*domain.Indicator, error) {
	indicator, ok := f.byID[indicatorID]
	if !ok {
		return nil, domain.ErrIndicatorNotFound
	}
	if update.Visible != nil {
		indicator.Visible = *update.Visible
	}
	if update.Parameters != nil {
		indicator.Parameters = update.Parameters
	}
	return indicator, nil
}

func (f *fakeIndicatorRepo) Delete(_ context.Context, indicatorID uuid.UUID) error {
	if _, ok := f.byID[indicatorID]; !ok {
		return domain.ErrIndicatorNotFound
	}
	delete(f.byID, indicatorID)
	return nil
}

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, taken := f.byEmail[user.Email]; taken {
		return nil, domain.ErrEmailTaken
	}
	stored := *user
	stored.ID = uuid.New()
	f.byEmail[stored.Email] = &stored
	return &stored, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	for _, user := range f.byEmail {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type fakeCandleRepo struct {
	lastLimit int
}

func (f *fakeCandleRepo) BulkInsert(_ context.Context, candles []domain.Candle) (int, error) {
	return len(candles), nil
}

func (f *fakeCandleRepo) Range(_ context.Context, _ string, _, _ int64, limit int) ([]domain.Candle, error) {
	f.lastLimit = limit
	return nil, nil
}

func (f *fakeCandleRepo) Count(context.Context) (int64, error) { return 0, nil }

func (f *fakeCandleRepo) Symbols(context.Context) ([]string, error) { return nil, nil }

type serviceFixture struct {
	service   *Service
	charts    *fakeChartRepo
	drawings  *fakeDrawingRepo
	candles   *fakeCandleRepo
	publisher *recordingPublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	charts := newFakeChartRepo()
	drawings := newFakeDrawingRepo()
	candles := &fakeCandleRepo{}
	publisher := &recordingPublisher{}
	tokens := auth.NewTokens("test-secret", time.Hour, clockwork.NewFakeClock())
	service := NewService(charts, drawings, newFakeIndicatorRepo(), newFakeUserRepo(), candles, publisher, tokens)
	return &serviceFixture{
		service:   service,
		charts:    charts,
		drawings:  drawings,
		candles:   candles,
		publisher: publisher,
	}
}

// --- Tests ---

func TestRegisterIssuesToken(t *testing.T) {
	f := newServiceFixture(t)

	user, token, err := f.service.Register(context.Background(), "alice@example.com", "hunter2!", "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "hunter2!", user.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.service.Register(context.Background(), "alice@example.com", "hunter2!", "Alice")
	require.NoError(t, err)

	_, _, err = f.service.Register(context.Background(), "alice@example.com", "other", "Alice Again")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginVerifiesPassword(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.service.Register(context.Background(), "alice@example.com", "hunter2!", "Alice")
	require.NoError(t, err)

	_, token, err := f.service.Login(context.Background(), "alice@example.com", "hunter2!")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, err = f.service.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = f.service.Login(context.Background(), "nobody@example.com", "hunter2!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCreateChartAppliesDefaultsAndPublishes(t *testing.T) {
	f := newServiceFixture(t)

	chart, err := f.service.CreateChart(context.Background(), CreateChartParams{
		Name:   "My Chart",
		Symbol: "BTCUSD",
	})
	require.NoError(t, err)
	assert.Equal(t, "candlestick", chart.ChartType)
	assert.Equal(t, "1h", chart.Timeframe)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "chart:created", f.publisher.events[0])
	assert.Equal(t, chart.ID.String(), f.publisher.chartIDs[0])
}

func TestUpdateChartPublishesNewState(t *testing.T) {
	f := newServiceFixture(t)

	chart, err := f.service.CreateChart(context.Background(), CreateChartParams{Name: "My Chart", Symbol: "BTCUSD"})
	require.NoError(t, err)

	name := "Renamed"
	updated, err := f.service.UpdateChart(context.Background(), chart.ID, domain.ChartUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, "chart:updated", f.publisher.events[1])
}

func TestUpdateMissingChartFails(t *testing.T) {
	f := newServiceFixture(t)

	name := "Renamed"
	_, err := f.service.UpdateChart(context.Background(), uuid.New(), domain.ChartUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrChartNotFound)
	assert.Empty(t, f.publisher.events)
}

func TestDemoChartCreatedOnFirstAccess(t *testing.T) {
	f := newServiceFixture(t)

	first, err := f.service.DemoChart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Demo Chart", first.Name)
	assert.Equal(t, "BTCUSD", first.Symbol)

	second, err := f.service.DemoChart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.charts.byID, 1)
}

func TestAddDrawingRequiresChart(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.AddDrawing(context.Background(), &domain.Drawing{
		ChartID:     uuid.New(),
		Type:        "trendline",
		Coordinates: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, domain.ErrChartNotFound)
	assert.Empty(t, f.publisher.events)
}

func TestDeleteDrawingPublishesID(t *testing.T) {
	f := newServiceFixture(t)

	chart, err := f.service.CreateChart(context.Background(), CreateChartParams{Name: "My Chart", Symbol: "BTCUSD"})
	require.NoError(t, err)

	drawing, err := f.service.AddDrawing(context.Background(), &domain.Drawing{
		ChartID:     chart.ID,
		Type:        "trendline",
		Coordinates: json.RawMessage(`{"points":[]}`),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteDrawing(context.Background(), drawing.ID))

	require.Len(t, f.publisher.events, 3)
	assert.Equal(t, "drawing:deleted", f.publisher.events[2])
	assert.Equal(t, deletedPayload{ID: drawing.ID.String()}, f.publisher.payloads[2])
	assert.Equal(t, chart.ID.String(), f.publisher.chartIDs[2])
}

func TestCandleHistoryCapsLimit(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.CandleHistory(context.Background(), "BTCUSD", 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, f.candles.lastLimit)

	_, err = f.service.CandleHistory(context.Background(), "BTCUSD", 0, 0, 999999)
	require.NoError(t, err)
	assert.Equal(t, maxHistoryLimit, f.candles.lastLimit)
}
