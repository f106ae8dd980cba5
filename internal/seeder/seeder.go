// Package seeder fills an empty candles table with demo OHLCV history so a
// fresh deployment has data to chart immediately.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
	"github.com/TiRizvanov/chart-widget-backend/internal/metrics"
)

const (
	seedDays     = 30
	seedInterval = time.Hour
)

// seedSymbol describes one demo instrument and its walk parameters.
type seedSymbol struct {
	symbol     string
	startPrice float64
	volatility float64
	baseVolume float64
}

var seedSymbols = []seedSymbol{
	{symbol: "BTCUSD", startPrice: 45000, volatility: 0.02, baseVolume: 100},
	{symbol: "ETHUSD", startPrice: 2800, volatility: 0.025, baseVolume: 500},
	{symbol: "ADAUSD", startPrice: 0.45, volatility: 0.03, baseVolume: 50000},
}

// Seeder generates demo market data when the candles table is empty.
type Seeder struct {
	candles domain.CandleRepository
	clock   clockwork.Clock
}

// New creates a seeder writing through the given repository.
func New(candles domain.CandleRepository, clock clockwork.Clock) *Seeder {
	return &Seeder{candles: candles, clock: clock}
}

// Run seeds demo candles unless data already exists. It is safe to call on
// every startup.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.candles.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count candles: %w", err)
	}
	if count > 0 {
		slog.Info("Market data already present, skipping seed", "candles", count)
		return nil
	}

	end := s.clock.Now().UTC().Truncate(seedInterval)
	start := end.Add(-seedDays * 24 * time.Hour)

	total := 0
	for _, sym := range seedSymbols {
		candles := generateCandles(sym, start, end)
		inserted, err := s.candles.BulkInsert(ctx, candles)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", sym.symbol, err)
		}
		total += inserted
		metrics.SeededCandlesTotal.Add(float64(inserted))
		slog.Info("Seeded market data", "symbol", sym.symbol, "candles", inserted)
	}

	slog.Info("Market data seeding complete", "symbols", len(seedSymbols), "candles", total)
	return nil
}

// generateCandles produces an hourly random walk over [start, end). Each
// symbol uses its own deterministic source so repeated runs against an empty
// table yield the same series.
func generateCandles(sym seedSymbol, start, end time.Time) []domain.Candle {
	var seed [32]byte
	copy(seed[:], sym.symbol)
	rng := rand.New(rand.NewChaCha8(seed))

	candles := make([]domain.Candle, 0, int(end.Sub(start)/seedInterval))
	price := sym.startPrice
	for ts := start; ts.Before(end); ts = ts.Add(seedInterval) {
		open := price
		change := (rng.Float64()*2 - 1) * sym.volatility
		close := open * (1 + change)

		high := max(open, close) * (1 + rng.Float64()*sym.volatility/2)
		low := min(open, close) * (1 - rng.Float64()*sym.volatility/2)
		volume := sym.baseVolume * (0.5 + rng.Float64())

		candles = append(candles, domain.Candle{
			Symbol:    sym.symbol,
			Timestamp: ts.UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
		price = close
	}
	return candles
}
