package dto

import (
	"github.com/baechuer/admin-console/internal/application/login"
	"github.com/baechuer/admin-console/internal/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Credentials() login.Credentials {
	return login.Credentials{Email: r.Email, Password: r.Password}
}

// LoginResponse is returned flat, without the data envelope.
type LoginResponse struct {
	User  SessionUserView `json:"user"`
	Token string          `json:"token"`
}

type SessionUserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func NewSessionUserView(u domain.SessionUser) SessionUserView {
	return SessionUserView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// MeResponse backs GET /api/auth/me.
type MeResponse struct {
	User      SessionUserView `json:"user"`
	ExpiresAt string          `json:"expiresAt"`
}
