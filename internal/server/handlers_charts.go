package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/TiRizvanov/chart-widget-backend/internal/app"
	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
	apperrors "github.com/TiRizvanov/chart-widget-backend/internal/errors"
)

type createChartRequest struct {
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	ChartType string          `json:"chartType"`
	Timeframe string          `json:"timeframe"`
	Settings  json.RawMessage `json:"settings"`
}

type updateChartRequest struct {
	Name      *string         `json:"name"`
	ChartType *string         `json:"chartType"`
	Timeframe *string         `json:"timeframe"`
	Settings  json.RawMessage `json:"settings"`
}

// chartIDParam parses the :id path parameter.
func chartIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid chart id").WithContext("id", raw)
	}
	return id, nil
}

func (s *Server) handleCreateChart(c echo.Context) error {
	var req createChartRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}
	if req.Symbol == "" {
		return apperrors.ValidationError("symbol is required")
	}

	chart, err := s.app.CreateChart(c.Request().Context(), app.CreateChartParams{
		Name:      req.Name,
		Symbol:    req.Symbol,
		ChartType: req.ChartType,
		Timeframe: req.Timeframe,
		Settings:  req.Settings,
	})
	if err != nil {
		return apperrors.InternalError("failed to create chart", err)
	}

	if err := c.JSON(http.StatusCreated, chart); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListCharts(c echo.Context) error {
	charts, err := s.app.ListCharts(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list charts", err)
	}

	if err := c.JSON(http.StatusOK, charts); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetChart(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	chart, err := s.app.GetChart(c.Request().Context(), chartID)
	if errors.Is(err, domain.ErrChartNotFound) {
		return apperrors.NotFoundError("chart not found").WithContext("chart_id", chartID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load chart", err)
	}

	if err := c.JSON(http.StatusOK, chart); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateChart(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	var req updateChartRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	chart, err := s.app.UpdateChart(c.Request().Context(), chartID, domain.ChartUpdate{
		Name:      req.Name,
		ChartType: req.ChartType,
		Timeframe: req.Timeframe,
		Settings:  req.Settings,
	})
	if errors.Is(err, domain.ErrChartNotFound) {
		return apperrors.NotFoundError("chart not found").WithContext("chart_id", chartID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to update chart", err)
	}

	if err := c.JSON(http.StatusOK, chart); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteChart(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	err = s.app.DeleteChart(c.Request().Context(), chartID)
	if errors.Is(err, domain.ErrChartNotFound) {
		return apperrors.NotFoundError("chart not found").WithContext("chart_id", chartID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to delete chart", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDemoChart(c echo.Context) error {
	chart, err := s.app.DemoChart(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load demo chart", err)
	}

	if err := c.JSON(http.StatusOK, chart); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
