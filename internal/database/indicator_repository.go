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
)

const indicatorColumns = `id, chart_id, type, parameters, style, visible, display_order, created_at`

// IndicatorRepo implements domain.IndicatorRepository backed by PostgreSQL.
type IndicatorRepo struct {
	pool *pgxpool.Pool
}

func NewIndicatorRepo(pool *pgxpool.Pool) *IndicatorRepo {
	return &IndicatorRepo{pool: pool}
}

func scanIndicator(row pgx.Row) (*domain.Indicator, error) {
	var i domain.Indicator
	err := row.Scan(&i.ID, &i.ChartID, &i.Type, &i.Parameters, &i.Style, &i.Visible, &i.DisplayOrder, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *IndicatorRepo) Create(ctx context.Context, indicator *domain.Indicator) (*domain.Indicator, error) {
	defer observe("indicator_create", time.Now())

	row := r.pool.QueryRow(ctx, `
		INSERT INTO indicators (chart_id, type, parameters, style, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+indicatorColumns,
		indicator.ChartID, indicator.Type, indicator.Parameters, indicator.Style, indicator.DisplayOrder)

	created, err := scanIndicator(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create indicator: %w", err)
	}
	return created, nil
}

func (r *IndicatorRepo) GetByID(ctx context.Context, indicatorID uuid.UUID) (*domain.Indicator, error) {
	defer observe("indicator_get", time.Now())

	row := r.pool.QueryRow(ctx, `SELECT `+indicatorColumns+` FROM indicators WHERE id = $1`, indicatorID)
	indicator, err := scanIndicator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIndicatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator: %w", err)
	}
	return indicator, nil
}

func (r *IndicatorRepo) ListByChart(ctx context.Context, chartID uuid.UUID) ([]domain.Indicator, error) {
	defer observe("indicator_list", time.Now())

	rows, err := r.pool.Query(ctx,
		`SELECT `+indicatorColumns+` FROM indicators WHERE chart_id = $1 ORDER BY display_order, created_at`, chartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	defer rows.Close()

	var indicators []domain.Indicator
	for rows.Next() {
		indicator, err := scanIndicator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, *indicator)
	}
	return indicators, rows.Err()
}

func (r *IndicatorRepo) Update(ctx context.Context, indicatorID uuid.UUID, update domain.IndicatorUpdate) (*domain.Indicator, error) {
	defer observe("indicator_update", time.Now())

	row := r.pool.QueryRow(ctx, `
		UPDATE indicators SET
			parameters    = COALESCE($2, parameters),
			style         = COALESCE($3, style),
			visible       = COALESCE($4, visible),
			display_order = COALESCE($5, display_order)
		WHERE id = $1
		RETURNING `+indicatorColumns,
		indicatorID, update.Parameters, update.Style, update.Visible, update.DisplayOrder)

	indicator, err := scanIndicator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIndicatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update indicator: %w", err)
	}
	return indicator, nil
}

func (r *IndicatorRepo) Delete(ctx context.Context, indicatorID uuid.UUID) error {
	defer observe("indicator_delete", time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM indicators WHERE id = $1`, indicatorID)
	if err != nil {
		return fmt.Errorf("failed to delete indicator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIndicatorNotFound
	}
	return nil
}
