package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/admin-console/internal/application/login"
	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/metrics"
	"github.com/baechuer/admin-console/internal/transport/http/dto"
	"github.com/baechuer/admin-console/internal/transport/http/middleware"
	"github.com/baechuer/admin-console/internal/transport/http/response"
)

type Authenticator interface {
	Login(ctx context.Context, creds login.Credentials) (login.Result, error)
}

type SessionManager interface {
	Create(ctx context.Context, token string, user domain.SessionUser) (domain.Session, error)
	Destroy(ctx context.Context, id string) error
}

type AuthHandler struct {
	login    Authenticator
	sessions SessionManager
	cookie   middleware.SessionCookie
}

func NewAuthHandler(login Authenticator, sessions SessionManager, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{login: login, sessions: sessions, cookie: cookie}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		metrics.RecordLogin("invalid_input")
		response.WriteError(w, r, err)
		return
	}

	res, err := h.login.Login(r.Context(), req.Credentials())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	// A fresh id on every login; the previous session, if any, is dropped.
	if old := h.cookie.Read(r); old != "" {
		if err := h.sessions.Destroy(r.Context(), old); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Msg("previous_session_destroy_failed")
		}
	}

	sess, err := h.sessions.Create(r.Context(), res.Token, res.User)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	h.cookie.Set(w, sess.ID, sess.ExpiresAt)

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Str("token_source", res.TokenSource).
		Str("user_source", res.UserSource).
		Msg("user_logged_in")

	response.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		User:  dto.NewSessionUserView(res.User),
		Token: res.Token,
	})
}

// Logout handles POST /api/auth/logout. It succeeds without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id := h.cookie.Read(r); id != "" {
		if err := h.sessions.Destroy(r.Context(), id); err != nil {
			response.WriteError(w, r, err)
			return
		}
	}
	h.cookie.Clear(w)
	response.NoContent(w)
}

// Me handles GET /api/auth/me behind RequireSession.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthenticated())
		return
	}
	response.OK(w, dto.MeResponse{
		User:      dto.NewSessionUserView(sess.User),
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
