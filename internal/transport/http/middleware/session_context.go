package middleware

import (
	"context"

	"github.com/baechuer/admin-console/internal/domain"
)

type ctxKey string

const ctxSession ctxKey = "session"

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, ctxSession, s)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(ctxSession).(domain.Session)
	return s, ok && s.ID != ""
}
