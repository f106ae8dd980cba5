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

var drawingTypes = map[string]bool{
	"trendline":  true,
	"horizontal": true,
	"vertical":   true,
	"rectangle":  true,
	"text":       true,
}

type createDrawingRequest struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Style       json.RawMessage `json:"style"`
	Visible     *bool           `json:"visible"`
	Locked      bool            `json:"locked"`
}

type updateDrawingRequest struct {
	Type        *string         `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Style       json.RawMessage `json:"style"`
	Visible     *bool           `json:"visible"`
	Locked      *bool           `json:"locked"`
}

func drawingIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("drawingId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid drawing id").WithContext("drawing_id", raw)
	}
	return id, nil
}

func (s *Server) handleAddDrawing(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	var req createDrawingRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if !drawingTypes[req.Type] {
		return apperrors.ValidationError("unknown drawing type").WithContext("type", req.Type)
	}
	if len(req.Coordinates) == 0 {
		return apperrors.ValidationError("coordinates are required")
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	if len(req.Style) == 0 {
		req.Style = json.RawMessage(`{}`)
	}

	drawing, err := s.app.AddDrawing(c.Request().Context(), &domain.Drawing{
		ChartID:     chartID,
		Type:        req.Type,
		Coordinates: req.Coordinates,
		Style:       req.Style,
		Visible:     visible,
		Locked:      req.Locked,
	})
	if errors.Is(err, domain.ErrChartNotFound) {
		return apperrors.NotFoundError("chart not found").WithContext("chart_id", chartID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to create drawing", err)
	}

	if err := c.JSON(http.StatusCreated, drawing); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListDrawings(c echo.Context) error {
	chartID, err := chartIDParam(c)
	if err != nil {
		return err
	}

	drawings, err := s.app.ListDrawings(c.Request().Context(), chartID)
	if err != nil {
		return apperrors.InternalError("failed to list drawings", err)
	}

	if err := c.JSON(http.StatusOK, drawings); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateDrawing(c echo.Context) error {
	drawingID, err := drawingIDParam(c)
	if err != nil {
		return err
	}

	var req updateDrawingRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Type != nil && !drawingTypes[*req.Type] {
		return apperrors.ValidationError("unknown drawing type").WithContext("type", *req.Type)
	}

	drawing, err := s.app.UpdateDrawing(c.Request().Context(), drawingID, domain.DrawingUpdate{
		Type:        req.Type,
		Coordinates: req.Coordinates,
		Style:       req.Style,
		Visible:     req.Visible,
		Locked:      req.Locked,
	})
	if errors.Is(err, domain.ErrDrawingNotFound) {
		return apperrors.NotFoundError("drawing not found").WithContext("drawing_id", drawingID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to update drawing", err)
	}

	if err := c.JSON(http.StatusOK, drawing); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteDrawing(c echo.Context) error {
	drawingID, err := drawingIDParam(c)
	if err != nil {
		return err
	}

	err = s.app.DeleteDrawing(c.Request().Context(), drawingID)
	if errors.Is(err, domain.ErrDrawingNotFound) {
		return apperrors.NotFoundError("drawing not found").WithContext("drawing_id", drawingID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to delete drawing", err)
	}

	return c.NoContent(http.StatusNoContent)
}
