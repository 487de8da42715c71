package goAuthClient

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches the X-Request-ID to send with API calls made under
// ctx. Without one, each request gets a fresh UUID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
