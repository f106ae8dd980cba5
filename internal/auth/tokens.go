// Package auth provides JWT issuance/verification and password hashing
// for the REST API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/TiRizvanov/chart-widget-backend/internal/domain"
)

// Claims captures the validated identity carried by an access token.
type Claims struct {
	UserID string
	Email  string
}

// tokenClaims is the internal claims type used for JWT parsing.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Tokens issues and verifies HMAC-signed access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewTokens creates a token manager with the given signing secret and lifetime.
func NewTokens(secret string, ttl time.Duration, clock clockwork.Clock) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

// Issue signs an access token for the given user.
func (t *Tokens) Issue(user domain.User) (string, error) {
	now := t.clock.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an access token, returning its claims.
func (t *Tokens) Verify(raw string) (Claims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("token is expired: %w", err)
		}
		return Claims{}, fmt.Errorf("token is invalid: %w", err)
	}
	if parsed.Subject == "" {
		return Claims{}, errors.New("token is missing a subject")
	}

	return Claims{
		UserID: parsed.Subject,
		Email:  parsed.Email,
	}, nil
}
