package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
)

// CandleRepo implements domain.CandleRepository backed by PostgreSQL.
type CandleRepo struct {
	pool *pgxpool.Pool
}

func NewCandleRepo(pool *pgxpool.Pool) *CandleRepo {
	return &CandleRepo{pool: pool}
}

// BulkInsert inserts candles via COPY. Conflicting (symbol, ts_ms) rows are
// not expected; the seeder only runs against an empty table.
func (r *CandleRepo) BulkInsert(ctx context.Context, candles []domain.Candle) (int, error) {
	defer observe("candle_bulk_insert", time.Now())

	rows := make([][]any, len(candles))
	for i, c := range candles {
		rows[i] = []any{c.Symbol, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume}
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"candles"},
		[]string{"symbol", "ts_ms", "open", "high", "low", "close", "volume"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert candles: %w", err)
	}
	return int(n), nil
}

func (r *CandleRepo) Range(ctx context.Context, symbol string, fromMs, toMs int64, limit int) ([]domain.Candle, error) {
	defer observe("candle_range", time.Now())

	rows, err := r.pool.Query(ctx, `
		SELECT symbol, ts_ms, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND ts_ms >= $2 AND ts_ms <= $3
		ORDER BY ts_ms
		LIMIT $4`,
		symbol, fromMs, toMs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Symbol, &c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

func (r *CandleRepo) Count(ctx context.Context) (int64, error) {
	defer observe("candle_count", time.Now())

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM candles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count candles: %w", err)
	}
	return count, nil
}

func (r *CandleRepo) Symbols(ctx context.Context) ([]string, error) {
	defer observe("candle_symbols", time.Now())

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM candles ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
