package login

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/baechuer/admin-console/internal/domain"
)

// Payload is an upstream login response body of unknown shape.
type Payload = map[string]any

// fieldPath addresses a value inside a Payload; each element descends one
// object level.
type fieldPath []string

func (p fieldPath) String() string { return strings.Join(p, ".") }

func (p fieldPath) lookup(payload Payload) (any, bool) {
	var cur any = payload
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Candidate orders. Earlier entries win.
var (
	tokenPaths = []fieldPath{
		{"token"},
		{"access_token"},
		{"accessToken"},
		{"jwt"},
		{"data", "token"},
		{"data", "access_token"},
	}

	userPaths = []fieldPath{
		{"user"},
		{"data", "user"},
		{"profile"},
		{"account"},
		{"data"},
	}

	idFields   = []string{"id", "_id", "uuid", "userId"}
	nameFields = []string{"name", "fullName", "username"}
	roleFields = []string{"role", "type"}

	// rootIdentitySource tags a user synthesized from top-level email/username.
	rootIdentitySource = "root"
)

const (
	fallbackID   = "unknown"
	fallbackName = "User"
	fallbackRole = "user"
)

// Result is a normalized upstream login response.
type Result struct {
	Token string
	User  domain.SessionUser

	// TokenSource and UserSource name the paths that matched, e.g.
	// "data.access_token". UserSource is empty when no user object was found.
	TokenSource string
	UserSource  string
}

// Normalize extracts the bearer token and user identity from payload.
// A missing token is an upstream contract violation; missing user data is not.
func Normalize(payload Payload, submittedEmail string) (Result, error) {
	token, tokenSrc, ok := ExtractToken(payload)
	if !ok {
		return Result{}, domain.ErrMalformedAuthResponse()
	}

	raw, userSrc, _ := ExtractUser(payload)

	return Result{
		Token:       token,
		User:        NormalizeUser(raw, submittedEmail),
		TokenSource: tokenSrc,
		UserSource:  userSrc,
	}, nil
}

// ExtractToken returns the first non-empty string found under tokenPaths.
func ExtractToken(payload Payload) (string, string, bool) {
	for _, p := range tokenPaths {
		v, ok := p.lookup(payload)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, p.String(), true
		}
	}
	return "", "", false
}

// ExtractUser returns the first JSON object found under userPaths, falling
// back to an identity synthesized from top-level email/username.
func ExtractUser(payload Payload) (map[string]any, string, bool) {
	for _, p := range userPaths {
		v, ok := p.lookup(payload)
		if !ok {
			continue
		}
		if obj, ok := v.(map[string]any); ok && obj != nil {
			return obj, p.String(), true
		}
	}

	email, hasEmail := coalesce(payload, "email")
	username, hasUsername := coalesce(payload, "username")
	if hasEmail || hasUsername {
		synth := map[string]any{}
		if hasEmail {
			synth["email"] = email
		}
		if hasUsername {
			synth["username"] = username
		}
		return synth, rootIdentitySource, true
	}

	return nil, "", false
}

// NormalizeUser fills every SessionUser field, substituting fallbacks for
// whatever raw lacks. raw may be nil.
func NormalizeUser(raw map[string]any, fallbackEmail string) domain.SessionUser {
	id, ok := coalesce(raw, idFields...)
	if !ok {
		id = fallbackID
	}

	email, ok := coalesce(raw, "email")
	if !ok {
		email = fallbackEmail
	}

	name, ok := coalesce(raw, nameFields...)
	if !ok {
		name = localPart(email)
	}

	role, ok := coalesce(raw, roleFields...)
	if !ok {
		role = fallbackRole
	}

	return domain.SessionUser{ID: id, Email: email, Name: name, Role: role}
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return fallbackName
	}
	return local
}

// coalesce returns the first usable scalar under keys: a non-empty string or
// a non-zero number rendered in decimal form.
func coalesce(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := scalarString(obj[k]); ok {
			return s, true
		}
	}
	return "", false
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		if f, err := t.Float64(); err != nil || f == 0 {
			return "", false
		}
		return t.String(), true
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
