package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
	apperrors "github.com/TiRizvanov/chart-widget-backend/internal/errors"
)

// candleResponse is the shape charting libraries expect: time in unix
// seconds. Candles are stored with millisecond timestamps.
type candleResponse struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func toCandleResponses(candles []domain.Candle) []candleResponse {
	out := make([]candleResponse, len(candles))
	for i, c := range candles {
		out[i] = candleResponse{
			Time:   c.Timestamp / 1000,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}
	return out
}

func queryInt64(c echo.Context, name string, defaultValue int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.ValidationError(name + " must be an integer").WithContext(name, raw)
	}
	return n, nil
}

func (s *Server) handleCandleHistory(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return apperrors.ValidationError("symbol is required")
	}

	from, err := queryInt64(c, "from", 0)
	if err != nil {
		return err
	}
	to, err := queryInt64(c, "to", time.Now().Unix())
	if err != nil {
		return err
	}
	limit, err := queryInt64(c, "limit", 0)
	if err != nil {
		return err
	}

	candles, err := s.app.CandleHistory(c.Request().Context(), symbol, from*1000, to*1000, int(limit))
	if err != nil {
		return apperrors.InternalError("failed to load candles", err)
	}

	if err := c.JSON(http.StatusOK, toCandleResponses(candles)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCandleCount(c echo.Context) error {
	count, err := s.app.CandleCount(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to count candles", err)
	}

	if err := c.JSON(http.StatusOK, map[string]int64{"count": count}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSymbols(c echo.Context) error {
	symbols, err := s.app.Symbols(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list symbols", err)
	}

	if err := c.JSON(http.StatusOK, map[string][]string{"symbols": symbols}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSeed(c echo.Context) error {
	if err := s.seeder.Run(c.Request().Context()); err != nil {
		return apperrors.InternalError("failed to seed market data", err)
	}

	count, err := s.app.CandleCount(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to count candles", err)
	}

	if err := c.JSON(http.StatusOK, map[string]int64{"count": count}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
