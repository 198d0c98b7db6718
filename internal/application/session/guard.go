package session

import (
	"net/url"
	"strings"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is the outcome of evaluating the guard for a page request.
// An empty Redirect means render.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

// Decide gates page rendering on session presence. next is the requested
// location, remembered across the login redirect when non-empty.
func Decide(authenticated bool, path, next string) Decision {
	onLogin := path == LoginPath
	switch {
	case authenticated && onLogin:
		return Decision{Redirect: HomePath}
	case !authenticated && !onLogin:
		if n := SanitizeNext(next); n != HomePath {
			return Decision{Redirect: LoginPath + "?next=" + url.QueryEscape(n)}
		}
		return Decision{Redirect: LoginPath}
	default:
		return Decision{}
	}
}

// SanitizeNext limits post-login redirects to local absolute paths.
func SanitizeNext(next string) string {
	if next == "" {
		return HomePath
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return HomePath
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return HomePath
	}
	if u.Path == LoginPath {
		return HomePath
	}
	return next
}
