package testutil

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

func SetupContext() context.Context {
	return SetupContextForUser(types.DefaultUserID)
}

// SetupContextForUser returns a request context authenticated as userID
func SetupContextForUser(userID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, userID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
