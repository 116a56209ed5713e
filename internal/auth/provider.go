package auth

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/config"
)

// Claims is the identity extracted from a validated token
type Claims struct {
	UserID string
	Email  string
}

type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
