package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/admin-console/internal/application/directory"
	"github.com/baechuer/admin-console/internal/application/login"
	"github.com/baechuer/admin-console/internal/domain"
)

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// mustReadData decodes a {"data": ...} envelope into out.
func mustReadData(t *testing.T, r io.Reader, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), "body=%s", raw)
	require.NoError(t, json.Unmarshal(env.Data, out), "body=%s", raw)
}

// readCookie finds cookie by name from response headers.
func readCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// withURLParam injects a chi URL param without a router.
func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// ---- fakes ----

type fakeAuthenticator struct {
	res      login.Result
	err      error
	gotCreds login.Credentials
	calls    int
}

func (f *fakeAuthenticator) Login(_ context.Context, creds login.Credentials) (login.Result, error) {
	f.calls++
	f.gotCreds = creds
	return f.res, f.err
}

type fakeSessions struct {
	created    domain.Session
	createErr  error
	destroyed  []string
	destroyErr error
}

func (f *fakeSessions) Create(_ context.Context, token string, user domain.SessionUser) (domain.Session, error) {
	if f.createErr != nil {
		return domain.Session{}, f.createErr
	}
	s := f.created
	s.Token = token
	s.User = user
	return s, nil
}

func (f *fakeSessions) Destroy(_ context.Context, id string) error {
	f.destroyed = append(f.destroyed, id)
	return f.destroyErr
}

type fakeDirectory struct {
	users     []domain.DirectoryUser
	user      domain.DirectoryUser
	err       error
	gotID     string
	gotCreate directory.CreateInput
	gotUpdate directory.UpdateInput
}

func (f *fakeDirectory) List(context.Context) ([]domain.DirectoryUser, error) {
	return f.users, f.err
}

func (f *fakeDirectory) Get(_ context.Context, id string) (domain.DirectoryUser, error) {
	f.gotID = id
	return f.user, f.err
}

func (f *fakeDirectory) Create(_ context.Context, in directory.CreateInput) (domain.DirectoryUser, error) {
	f.gotCreate = in
	return f.user, f.err
}

func (f *fakeDirectory) Update(_ context.Context, id string, in directory.UpdateInput) (domain.DirectoryUser, error) {
	f.gotID = id
	f.gotUpdate = in
	return f.user, f.err
}

func (f *fakeDirectory) Delete(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}
