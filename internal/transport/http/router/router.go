package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/transport/http/middleware"
	"github.com/baechuer/admin-console/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type UserHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler
	Users  UserHandler
	Pages  http.Handler

	// Metrics serves /metrics when set.
	Metrics http.Handler

	SessionMW        func(http.Handler) http.Handler
	RequireSessionMW func(http.Handler) http.Handler
	LoginRateLimitMW func(http.Handler) http.Handler

	// TracingMW is optional.
	TracingMW func(http.Handler) http.Handler
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("nil Users handler")
	}
	if deps.Pages == nil {
		return nil, fmt.Errorf("nil Pages handler")
	}
	if deps.SessionMW == nil {
		return nil, fmt.Errorf("nil Session middleware")
	}
	if deps.RequireSessionMW == nil {
		return nil, fmt.Errorf("nil RequireSession middleware")
	}
	if deps.LoginRateLimitMW == nil {
		return nil, fmt.Errorf("nil LoginRateLimit middleware")
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	if deps.TracingMW != nil {
		r.Use(deps.TracingMW)
	}
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(noStore)
		r.Use(deps.SessionMW)

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.LoginRateLimitMW).Post("/login", deps.Auth.Login)
			r.Post("/logout", deps.Auth.Logout)
			r.With(deps.RequireSessionMW).Get("/me", deps.Auth.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(deps.RequireSessionMW)

			r.Get("/", deps.Users.List)
			r.Post("/", deps.Users.Create)
			r.Get("/{id}", deps.Users.Get)
			r.Patch("/{id}", deps.Users.Update)
			r.Put("/{id}", deps.Users.Update)
			r.Delete("/{id}", deps.Users.Delete)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			response.WriteError(w, r, domain.New(domain.KindNotFound, "route_not_found", "Not found"))
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			e := domain.New(domain.KindValidation, "method_not_allowed", "Method not allowed")
			e.Status = http.StatusMethodNotAllowed
			response.WriteError(w, r, e)
		})
	})

	// Built assets must load on the login view too.
	r.Handle("/assets/*", deps.Pages)
	r.Handle("/favicon.ico", deps.Pages)

	// Everything else is the admin app, gated by the page guard.
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMW)
		r.Use(middleware.Guard)
		r.Handle("/*", deps.Pages)
	})

	return r, nil
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
