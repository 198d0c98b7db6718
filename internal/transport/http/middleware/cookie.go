package middleware

import (
	"net/http"
	"time"
)

// SessionCookie describes the HttpOnly cookie carrying the session id.
// Secure cookies get the __Host- prefix, which pins them to this origin.
type SessionCookie struct {
	Name   string
	Secure bool
}

func (c SessionCookie) name() string {
	n := c.Name
	if n == "" {
		n = "admin_session"
	}
	if c.Secure {
		return "__Host-" + n
	}
	return n
}

func (c SessionCookie) Set(w http.ResponseWriter, id string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session id, or "" when the cookie is absent.
func (c SessionCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return ck.Value
}
