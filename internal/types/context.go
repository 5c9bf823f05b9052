package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID    ContextKey = "ctx_request_id"
	CtxTenantID     ContextKey = "ctx_tenant_id"
	CtxBillingRunID ContextKey = "ctx_billing_run_id"

	// Default values
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
)

func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(CtxTenantID).(string); ok {
		return tenantID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

func GetBillingRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(CtxBillingRunID).(string); ok {
		return runID
	}
	return ""
}

// WithBillingRunID returns a copy of ctx carrying the billing run identifier
func WithBillingRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, CtxBillingRunID, runID)
}
