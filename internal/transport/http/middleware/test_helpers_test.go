package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/infrastructure/redis"
)

type writeErrRecorder struct {
	calls int
	last  error
}

func (w *writeErrRecorder) fn(rw http.ResponseWriter, _ *http.Request, err error) {
	w.calls++
	w.last = err
	rw.WriteHeader(599)
}

type nextRecorder struct {
	calls   int
	session domain.Session
	hasSess bool
}

func (n *nextRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls++
	n.session, n.hasSess = SessionFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

type fakeResolver struct {
	sess  domain.Session
	err   error
	gotID string
}

func (f *fakeResolver) Current(_ context.Context, id string) (domain.Session, error) {
	f.gotID = id
	return f.sess, f.err
}

type fakeLimiter struct {
	dec    redis.Decision
	err    error
	gotKey string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (redis.Decision, error) {
	f.gotKey = key
	return f.dec, f.err
}
