package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
	"github.com/TiRizvanov/chart-widget-backend/internal/metrics"
)

// chartColumns must match the Scan order in scanChart.
const chartColumns = `id, name, symbol, chart_type, timeframe, settings, created_at, updated_at`

// ChartRepo implements domain.ChartRepository backed by PostgreSQL.
type ChartRepo struct {
	pool *pgxpool.Pool
}

func NewChartRepo(pool *pgxpool.Pool) *ChartRepo {
	return &ChartRepo{pool: pool}
}

func observe(query string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

func scanChart(row pgx.Row) (*domain.Chart, error) {
	var c domain.Chart
	err := row.Scan(&c.ID, &c.Name, &c.Symbol, &c.ChartType, &c.Timeframe, &c.Settings, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChartRepo) Create(ctx context.Context, chart *domain.Chart) (*domain.Chart, error) {
	defer observe("chart_create", time.Now())

	row := r.pool.QueryRow(ctx, `
		INSERT INTO charts (name, symbol, chart_type, timeframe, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+chartColumns,
		chart.Name, chart.Symbol, chart.ChartType, chart.Timeframe, chart.Settings)

	created, err := scanChart(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}
	return created, nil
}

func (r *ChartRepo) GetByID(ctx context.Context, chartID uuid.UUID) (*domain.Chart, error) {
	defer observe("chart_get", time.Now())

	row := r.pool.QueryRow(ctx, `SELECT `+chartColumns+` FROM charts WHERE id = $1`, chartID)
	chart, err := scanChart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	return chart, nil
}

func (r *ChartRepo) GetByName(ctx context.Context, name string) (*domain.Chart, error) {
	defer observe("chart_get_by_name", time.Now())

	row := r.pool.QueryRow(ctx, `SELECT `+chartColumns+` FROM charts WHERE name = $1 LIMIT 1`, name)
	chart, err := scanChart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chart by name: %w", err)
	}
	return chart, nil
}

func (r *ChartRepo) List(ctx context.Context) ([]domain.Chart, error) {
	defer observe("chart_list", time.Now())

	rows, err := r.pool.Query(ctx, `SELECT `+chartColumns+` FROM charts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}
	defer rows.Close()

	var charts []domain.Chart
	for rows.Next() {
		chart, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chart: %w", err)
		}
		charts = append(charts, *chart)
	}
	return charts, rows.Err()
}

func (r *ChartRepo) Update(ctx context.Context, chartID uuid.UUID, update domain.ChartUpdate) (*domain.Chart, error) {
	defer observe("chart_update", time.Now())

	row := r.pool.QueryRow(ctx, `
		UPDATE charts SET
			name       = COALESCE($2, name),
			chart_type = COALESCE($3, chart_type),
			timeframe  = COALESCE($4, timeframe),
			settings   = COALESCE($5, settings),
			updated_at = now()
		WHERE id = $1
		RETURNING `+chartColumns,
		chartID, update.Name, update.ChartType, update.Timeframe, update.Settings)

	chart, err := scanChart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update chart: %w", err)
	}
	return chart, nil
}

func (r *ChartRepo) Delete(ctx context.Context, chartID uuid.UUID) error {
	defer observe("chart_delete", time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM charts WHERE id = $1`, chartID)
	if err != nil {
		return fmt.Errorf("failed to delete chart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChartNotFound
	}
	return nil
}
