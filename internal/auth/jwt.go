package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
)

// JWTAuth validates HS256 tokens issued by the hosted identity provider.
// The user id is carried in the standard sub claim.
type JWTAuth struct {
	secret []byte
}

func NewJWTAuth(cfg *config.Configuration) *JWTAuth {
	return &JWTAuth{secret: []byte(cfg.Auth.Secret)}
}

func (a *JWTAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, ierr.NewError("auth secret not configured").
			WithHint("Authentication is not configured").
			Mark(ierr.ErrUnauthorized)
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHintf("unexpected signing method: %v", token.Header["alg"]).
				Mark(ierr.ErrUnauthorized)
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ierr.NewError("token has no subject").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)

	return &Claims{UserID: userID, Email: email}, nil
}

// GenerateToken signs a token for userID. The hosted provider issues the
// tokens in production; this is used by local tooling and tests.
func (a *JWTAuth) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
