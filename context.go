package tokenroll

import "context"

type ctxKey int

const (
	ctxKeyClientIP ctxKey = iota
	ctxKeyRequestID
)

// WithClientIP attaches the caller's IP so audit events can record where a
// rotation or a reuse attempt came from.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// WithRequestID attaches an external correlation ID to audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func clientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyClientIP).(string)
	return v
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}
