package domain

import "errors"

var (
	ErrChartNotFound      = errors.New("chart not found")
	ErrDrawingNotFound    = errors.New("drawing not found")
	ErrIndicatorNotFound  = errors.New("indicator not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
