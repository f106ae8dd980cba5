package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

type Chart struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	ChartType string          `json:"chartType"`
	Timeframe string          `json:"timeframe"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Drawing struct {
	ID          uuid.UUID       `json:"id"`
	ChartID     uuid.UUID       `json:"chartId"`
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Style       json.RawMessage `json:"style"`
	Visible     bool            `json:"visible"`
	Locked      bool            `json:"locked"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Indicator struct {
	ID           uuid.UUID       `json:"id"`
	ChartID      uuid.UUID       `json:"chartId"`
	Type         string          `json:"type"`
	Parameters   json.RawMessage `json:"parameters"`
	Style        json.RawMessage `json:"style,omitempty"`
	Visible      bool            `json:"visible"`
	DisplayOrder int             `json:"displayOrder"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Candle is one OHLCV bar. Timestamp is unix milliseconds, matching the
// stored representation; HTTP responses convert to unix seconds.
type Candle struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// --- Update parameter types ---

// ChartUpdate carries the mutable chart fields; nil means leave unchanged.
type ChartUpdate struct {
	Name      *string
	ChartType *string
	Timeframe *string
	Settings  json.RawMessage
}

type DrawingUpdate struct {
	Type        *string
	Coordinates json.RawMessage
	Style       json.RawMessage
	Visible     *bool
	Locked      *bool
}

type IndicatorUpdate struct {
	Parameters   json.RawMessage
	Style        json.RawMessage
	Visible      *bool
	DisplayOrder *int
}

// --- Repository interfaces ---

type ChartRepository interface {
	Create(ctx context.Context, chart *Chart) (*Chart, error)
	GetByID(ctx context.Context, chartID uuid.UUID) (*Chart, error)
	GetByName(ctx context.Context, name string) (*Chart, error)
	List(ctx context.Context) ([]Chart, error)
	Update(ctx context.Context, chartID uuid.UUID, update ChartUpdate) (*Chart, error)
	Delete(ctx context.Context, chartID uuid.UUID) error
}

type DrawingRepository interface {
	Create(ctx context.Context, drawing *Drawing) (*Drawing, error)
	GetByID(ctx context.Context, drawingID uuid.UUID) (*Drawing, error)
	ListByChart(ctx context.Context, chartID uuid.UUID) ([]Drawing, error)
	Update(ctx context.Context, drawingID uuid.UUID, update DrawingUpdate) (*Drawing, error)
	Delete(ctx context.Context, drawingID uuid.UUID) error
}

type IndicatorRepository interface {
	Create(ctx context.Context, indicator *Indicator) (*Indicator, error)
	GetByID(ctx context.Context, indicatorID uuid.UUID) (*Indicator, error)
	ListByChart(ctx context.Context, chartID uuid.UUID) ([]Indicator, error)
	Update(ctx context.Context, indicatorID uuid.UUID, update IndicatorUpdate) (*Indicator, error)
	Delete(ctx context.Context, indicatorID uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
}

type CandleRepository interface {
	BulkInsert(ctx context.Context, candles []Candle) (int, error)
	Range(ctx context.Context, symbol string, fromMs, toMs int64, limit int) ([]Candle, error)
	Count(ctx context.Context) (int64, error)
	Symbols(ctx context.Context) ([]string, error)
}

// MutationPublisher is the boundary between the CRUD layer and the realtime
// core: every persisted chart/drawing/indicator mutation is announced to the
// chart's room through it. Implementations must not block on slow consumers.
type MutationPublisher interface {
	PublishMutation(chartID string, event string, payload any)
}
