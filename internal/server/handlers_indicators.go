package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
	apperrors "github.com/TiRizvanov/chart-widget-backend/internal/errors"
)

var indicatorTypes = map[string]bool{
	"SMA":        true,
	"EMA":        true,
	"RSI":        true,
	"MACD":       true,
	"BOLLINGER":  true,
	"VOLUME":     true,
	"STOCHASTIC": true,
	"ATR":        true,
}

type createIndicatorRequest struct {
	Type         string          `json:"type"`
	Parameters   json.RawMessage `json:"parameters"`
	Style        json.RawMessage `json:"style"`
	Visible      *bool           `json:"visible"`
	DisplayOrder int             `json:"displayOrder"`
}

type updateIndicatorRequest struct {
	Parameters   json.RawMessage `json:"parameters"`
	Style        json.RawMessage `json:"style"`
	Visible      *bool           `json:"visible"`
	DisplayOrder *int            `json:"displayOrder"`
}

func indicatorIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("indicatorId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid indicator id").WithContext("indicator_id", raw)
	}
	return id, nil
}

func (s *Server) handleAddIndicator(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	var req createIndicatorRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if !indicatorTypes[req.Type] {
		return apperrors.ValidationError("unknown indicator type").WithContext("type", req.Type)
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	if len(req.Parameters) == 0 {
		req.Parameters = json.RawMessage(`{}`)
	}

	indicator, err := s.app.AddIndicator(c.Request().Context(), &domain.Indicator{
		ChartID:      chartID,
		Type:         req.Type,
		Parameters:   req.Parameters,
		Style:        req.Style,
		Visible:      visible,
		DisplayOrder: req.DisplayOrder,
	})
	if errors.Is(err, domain.ErrChartNotFound) {
		return apperrors.NotFoundError("chart not found").WithContext("chart_id", chartID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to create indicator", err)
	}

	if err := c.JSON(http.StatusCreated, indicator); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListIndicators(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	indicators, err := s.app.ListIndicators(c.Request().Context(), chartID)
	if err != nil {
		return apperrors.InternalError("failed to list indicators", err)
	}

	if err := c.JSON(http.StatusOK, indicators); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateIndicator(c echo.Context) error {
	indicatorID, err := indicatorIDParam(c)
	if err != nil {
		return err
	}

	var req updateIndicatorRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	indicator, err := s.app.UpdateIndicator(c.Request().Context(), indicatorID, domain.IndicatorUpdate{
		Parameters:   req.Parameters,
		Style:        req.Style,
		Visible:      req.Visible,
		DisplayOrder: req.DisplayOrder,
	})
	if errors.Is(err, domain.ErrIndicatorNotFound) {
		return apperrors.NotFoundError("indicator not found").WithContext("indicator_id", indicatorID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to update indicator", err)
	}

	if err := c.JSON(http.StatusOK, indicator); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteIndicator(c echo.Context) error {
	indicatorID, err := indicatorIDParam(c)
	if err != nil {
		return err
	}

	err = s.app.DeleteIndicator(c.Request().Context(), indicatorID)
	if errors.Is(err, domain.ErrIndicatorNotFound) {
		return apperrors.NotFoundError("indicator not found").WithContext("indicator_id", indicatorID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to delete indicator", err)
	}

	return c.NoContent(http.StatusNoContent)
}
