package core

import "context"

// contextKey namespaces values stored in context.Context so they never
// collide with keys defined by other packages.
type contextKey string

const (
	keyCorrelationID contextKey = "correlation_id"
	keyCallerID      contextKey = "caller_id"
	keyTenantID      contextKey = "tenant_id"
)

// WithCorrelationID attaches the request's correlation_id to ctx. Every
// pipeline run and every progress event emitted for it carries this value.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyCorrelationID, id)
}

// CorrelationID extracts the correlation_id previously attached to ctx.
func CorrelationID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyCorrelationID).(string)
	return v, ok && v != ""
}

// WithCallerID attaches the caller identity opportunistically extracted from
// an unverified bearer token, for logging only.
func WithCallerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyCallerID, id)
}

// CallerID extracts the caller identity from ctx, if any.
func CallerID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyCallerID).(string)
	return v, ok && v != ""
}

// WithTenantID attaches a tenant identity to ctx.
func WithTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyTenantID, id)
}

// TenantID extracts the tenant identity from ctx, if any.
func TenantID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTenantID).(string)
	return v, ok && v != ""
}
