package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/auth"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// AuthenticateMiddleware authenticates requests based on either:
// 1. the admin API key in the x-api-key header
// 2. a JWT in the Authorization header as a Bearer token
// The user id, or the admin flag, is stored in the request context.
func AuthenticateMiddleware(cfg *config.Configuration, provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader(types.HeaderAPIKey); apiKey != "" {
			if !auth.ValidateAdminAPIKey(cfg, apiKey) {
				logger.Debugw("invalid api key")
				abortUnauthorized(c, "Invalid API key")
				return
			}
			c.Request = c.Request.WithContext(types.SetAdmin(c.Request.Context()))
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortUnauthorized(c, "Invalid token")
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		ctx = types.SetJWT(ctx, tokenString)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects requests not authenticated with the admin API key
func RequireAdmin(c *gin.Context) {
	if !types.IsAdmin(c.Request.Context()) {
		_ = c.Error(ierr.NewError("admin access required").
			WithHint("This endpoint requires the admin API key").
			Mark(ierr.ErrPermissionDenied))
		c.Abort()
		return
	}
	c.Next()
}

func abortUnauthorized(c *gin.Context, hint string) {
	_ = c.Error(ierr.NewError("unauthenticated request").
		WithHint(hint).
		Mark(ierr.ErrUnauthorized))
	c.Abort()
}
