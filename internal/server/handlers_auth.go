package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
	apperrors "github.com/TiRizvanov/chart-widget-backend/internal/errors"
)

const minPasswordLength = 8

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperrors.ValidationError("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return apperrors.ValidationError("password must be at least 8 characters")
	}

	user, token, err := s.app.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if errors.Is(err, domain.ErrEmailTaken) {
		return apperrors.ConflictError("email is already registered")
	}
	if err != nil {
		return apperrors.InternalError("failed to register user", err)
	}

	if err := c.JSON(http.StatusCreated, authResponse{User: user, Token: token}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	user, token, err := s.app.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return apperrors.UnauthorizedError("invalid email or password")
	}
	if err != nil {
		return apperrors.InternalError("failed to log in", err)
	}

	if err := c.JSON(http.StatusOK, authResponse{User: user, Token: token}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
