package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/admin-console/internal/application/session"
	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
)

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// SessionResolver is the part of session.Service the middleware needs.
type SessionResolver interface {
	Current(ctx context.Context, id string) (domain.Session, error)
}

// LoadSession resolves the session cookie and stores a valid session in the
// request context. A stale cookie is cleared; the request continues
// unauthenticated. Store failures abort with writeErr.
func LoadSession(sessions SessionResolver, cookie SessionCookie, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cookie.Read(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Current(r.Context(), id)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
			case session.IsUnauthenticated(err):
				cookie.Clear(w)
				next.ServeHTTP(w, r)
			default:
				logger.WithCtx(r.Context()).Error().Err(err).Msg("session_lookup_failed")
				writeErr(w, r, err)
			}
		})
	}
}

// RequireSession rejects API requests without a session with a 401.
func RequireSession(writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				writeErr(w, r, domain.ErrUnauthenticated())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard redirects page requests according to session.Decide.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := SessionFromContext(r.Context())

		var want string
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			want = r.URL.RequestURI()
		}

		d := session.Decide(authenticated, r.URL.Path, want)
		if !d.Allowed() {
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
