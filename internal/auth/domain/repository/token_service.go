package repository

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService defines the interface for token operations
type TokenService interface {
	GenerateToken(ctx context.Context, userID, email string) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateState signs the round-trip state for a federated redirect.
	GenerateState(ctx context.Context, provider string) (string, error)
	ValidateState(ctx context.Context, state, provider string) error
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// StateClaims bind a federated redirect to the provider it was started for.
type StateClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}
