package middleware

import (
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// SentryMiddleware returns a middleware that captures panics and tags the
// request scope with the caller identity
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryScopeMiddleware runs after authentication and copies the request
// identity onto the Sentry hub of the request
func SentryScopeMiddleware(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		ctx := c.Request.Context()
		hub.ConfigureScope(func(scope *sentrygo.Scope) {
			scope.SetUser(sentrygo.User{ID: types.GetUserID(ctx)})
			scope.SetTag("request_id", types.GetRequestID(ctx))
			if types.IsAdmin(ctx) {
				scope.SetTag("admin", "true")
			}
		})
	}
	c.Next()
}
