package domain

import "time"

// Session is the server-side replacement of the browser-persisted
// token/user/loggedIn triple.
type Session struct {
	ID        string
	Token     string
	User      SessionUser
	LoggedIn  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Valid reports whether the session may authenticate a request at now.
func (s Session) Valid(now time.Time) bool {
	return s.ID != "" && s.Token != "" && s.LoggedIn && !s.Expired(now)
}
