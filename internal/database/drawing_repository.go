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

const drawingColumns = `id, chart_id, type, coordinates, style, visible, locked, created_at, updated_at`

// DrawingRepo implements domain.DrawingRepository backed by PostgreSQL.
type DrawingRepo struct {
	pool *pgxpool.Pool
}

func NewDrawingRepo(pool *pgxpool.Pool) *DrawingRepo {
	return &DrawingRepo{pool: pool}
}

func scanDrawing(row pgx.Row) (*domain.Drawing, error) {
	var d domain.Drawing
	err := row.Scan(&d.ID, &d.ChartID, &d.Type, &d.Coordinates, &d.Style, &d.Visible, &d.Locked, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DrawingRepo) Create(ctx context.Context, drawing *domain.Drawing) (*domain.Drawing, error) {
	defer observe("drawing_create", time.Now())

	row := r.pool.QueryRow(ctx, `
		INSERT INTO drawings (chart_id, type, coordinates, style)
		VALUES ($1, $2, $3, $4)
		RETURNING `+drawingColumns,
		drawing.ChartID, drawing.Type, drawing.Coordinates, drawing.Style)

	created, err := scanDrawing(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create drawing: %w", err)
	}
	return created, nil
}

func (r *DrawingRepo) GetByID(ctx context.Context, drawingID uuid.UUID) (*domain.Drawing, error) {
	defer observe("drawing_get", time.Now())

	row := r.pool.QueryRow(ctx, `SELECT `+drawingColumns+` FROM drawings WHERE id = $1`, drawingID)
	drawing, err := scanDrawing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDrawingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drawing: %w", err)
	}
	return drawing, nil
}

func (r *DrawingRepo) ListByChart(ctx context.Context, chartID uuid.UUID) ([]domain.Drawing, error) {
	defer observe("drawing_list", time.Now())

	rows, err := r.pool.Query(ctx,
		`SELECT `+drawingColumns+` FROM drawings WHERE chart_id = $1 ORDER BY created_at`, chartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawings: %w", err)
	}
	defer rows.Close()

	var drawings []domain.Drawing
	for rows.Next() {
		drawing, err := scanDrawing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drawing: %w", err)
		}
		drawings = append(drawings, *drawing)
	}
	return drawings, rows.Err()
}

func (r *DrawingRepo) Update(ctx context.Context, drawingID uuid.UUID, update domain.DrawingUpdate) (*domain.Drawing, error) {
	defer observe("drawing_update", time.Now())

	row := r.pool.QueryRow(ctx, `
		UPDATE drawings SET
			type        = COALESCE($2, type),
			coordinates = COALESCE($3, coordinates),
			style       = COALESCE($4, style),
			visible     = COALESCE($5, visible),
			locked      = COALESCE($6, locked),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+drawingColumns,
		drawingID, update.Type, update.Coordinates, update.Style, update.Visible, update.Locked)

	drawing, err := scanDrawing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDrawingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update drawing: %w", err)
	}
	return drawing, nil
}

func (r *DrawingRepo) Delete(ctx context.Context, drawingID uuid.UUID) error {
	defer observe("drawing_delete", time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, drawingID)
	if err != nil {
		return fmt.Errorf("failed to delete drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDrawingNotFound
	}
	return nil
}
