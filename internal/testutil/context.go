package testutil

import (
	"context"
	"time"

	"github.com/flexprice/usagebilling/internal/types"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}

// Date returns the calendar date at midnight UTC
func Date(year int, month time.Month, day int) time.Time {
	return types.NewDate(year, month, day)
}
