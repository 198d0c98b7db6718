// Package context carries request-scoped values shared by the transport,
// logging and outbound layers.
package context

import "context"

type requestIDKey struct{}

func WithRequestID(parent context.Context, id string) context.Context {
	if id == "" {
		return parent
	}
	return context.WithValue(parent, requestIDKey{}, id)
}

// GetRequestID returns "" for a nil context or one without an id.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
