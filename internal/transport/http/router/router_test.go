package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/transport/http/middleware"
)

// ---------- fakes ----------

func write(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

type fakeHealth struct{}

func (fakeHealth) Healthz(w http.ResponseWriter, r *http.Request) { write(w, 200, "ok") }
func (fakeHealth) Readyz(w http.ResponseWriter, r *http.Request)  { write(w, 200, "ready") }

type fakeAuth struct{}

func (fakeAuth) Login(w http.ResponseWriter, r *http.Request)  { write(w, 200, "login") }
func (fakeAuth) Logout(w http.ResponseWriter, r *http.Request) { write(w, 204, "") }
func (fakeAuth) Me(w http.ResponseWriter, r *http.Request)     { write(w, 200, "me") }

type fakeUsers struct{}

func (fakeUsers) List(w http.ResponseWriter, r *http.Request)   { write(w, 200, "list") }
func (fakeUsers) Get(w http.ResponseWriter, r *http.Request)    { write(w, 200, "get") }
func (fakeUsers) Create(w http.ResponseWriter, r *http.Request) { write(w, 201, "create") }
func (fakeUsers) Update(w http.ResponseWriter, r *http.Request) { write(w, 200, "update") }
func (fakeUsers) Delete(w http.ResponseWriter, r *http.Request) { write(w, 204, "") }

var fakePages = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { write(w, 200, "page") })

func noopMW(next http.Handler) http.Handler { return next }

func headerMW(key, val string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, val)
			next.ServeHTTP(w, r)
		})
	}
}

// authedMW marks every request as carrying a valid session.
func authedMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), domain.Session{ID: "sid", LoggedIn: true})))
	})
}

func baseDeps() Deps {
	return Deps{
		Health:           fakeHealth{},
		Auth:             fakeAuth{},
		Users:            fakeUsers{},
		Pages:            fakePages,
		SessionMW:        noopMW,
		RequireSessionMW: noopMW,
		LoginRateLimitMW: noopMW,
	}
}

func serve(t *testing.T, deps Deps, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	h, err := New(deps)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

// ---------- tests ----------

func TestNew_MissingDeps(t *testing.T) {
	cases := map[string]func(*Deps){
		"health":          func(d *Deps) { d.Health = nil },
		"auth":            func(d *Deps) { d.Auth = nil },
		"users":           func(d *Deps) { d.Users = nil },
		"pages":           func(d *Deps) { d.Pages = nil },
		"session mw":      func(d *Deps) { d.SessionMW = nil },
		"require session": func(d *Deps) { d.RequireSessionMW = nil },
		"rate limit":      func(d *Deps) { d.LoginRateLimitMW = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := baseDeps()
			mutate(&d)
			_, err := New(d)
			assert.Error(t, err)
		})
	}
}

func TestNew_HealthRoutes(t *testing.T) {
	rr := serve(t, baseDeps(), http.MethodGet, "/healthz")
	assert.Equal(t, "ok", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.HeaderXRequestID))

	rr = serve(t, baseDeps(), http.MethodGet, "/readyz")
	assert.Equal(t, "ready", rr.Body.String())
}

func TestNew_MetricsRouteOptional(t *testing.T) {
	rr := serve(t, baseDeps(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusFound, rr.Code, "without a metrics handler the path belongs to the guarded app")

	d := baseDeps()
	d.Metrics = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { write(w, 200, "metrics") })
	rr = serve(t, d, http.MethodGet, "/metrics")
	assert.Equal(t, "metrics", rr.Body.String())
}

func TestNew_LoginUsesRateLimit(t *testing.T) {
	d := baseDeps()
	d.LoginRateLimitMW = headerMW("X-RL", "1")

	rr := serve(t, d, http.MethodPost, "/api/auth/login")
	assert.Equal(t, "login", rr.Body.String())
	assert.Equal(t, "1", rr.Header().Get("X-RL"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	rr = serve(t, d, http.MethodPost, "/api/auth/logout")
	assert.Empty(t, rr.Header().Get("X-RL"))
}

func TestNew_UserRoutesRequireSession(t *testing.T) {
	d := baseDeps()
	d.RequireSessionMW = headerMW("X-Require", "1")

	cases := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/api/users", "list"},
		{http.MethodPost, "/api/users", "create"},
		{http.MethodGet, "/api/users/1", "get"},
		{http.MethodPatch, "/api/users/1", "update"},
		{http.MethodPut, "/api/users/1", "update"},
		{http.MethodDelete, "/api/users/1", ""},
	}
	for _, tc := range cases {
		rr := serve(t, d, tc.method, tc.target)
		assert.Equal(t, tc.body, rr.Body.String(), "%s %s", tc.method, tc.target)
		assert.Equal(t, "1", rr.Header().Get("X-Require"), "%s %s", tc.method, tc.target)
	}

	rr := serve(t, d, http.MethodGet, "/api/auth/me")
	assert.Equal(t, "1", rr.Header().Get("X-Require"))
}

func TestNew_UnknownAPIRouteIsJSON404(t *testing.T) {
	rr := serve(t, baseDeps(), http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
	assert.Contains(t, rr.Body.String(), `"code":"route_not_found"`)
}

func TestNew_PagesAreGuarded(t *testing.T) {
	rr := serve(t, baseDeps(), http.MethodGet, "/users")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login?next=%2Fusers", rr.Header().Get("Location"))

	rr = serve(t, baseDeps(), http.MethodGet, "/login")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "page", rr.Body.String())

	rr = serve(t, baseDeps(), http.MethodGet, "/assets/app.js")
	assert.Equal(t, http.StatusOK, rr.Code, "assets load before login")

	d := baseDeps()
	d.SessionMW = authedMW
	rr = serve(t, d, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, d, http.MethodGet, "/login")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}
