package login

import "context"

// Credentials are submitted by the browser. Never persisted.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpstreamResponse is the raw outcome of an upstream login call.
// Body is never nil; unparsable bodies arrive as an empty object.
type UpstreamResponse struct {
	StatusCode int
	Body       Payload
}

/*
Upstream
--------
The external auth service. Transport failures come back as domain
upstream/timeout errors; any status code is a successful call.
*/
type Upstream interface {
	Authenticate(ctx context.Context, creds Credentials) (UpstreamResponse, error)
}
