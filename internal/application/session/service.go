package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/metrics"
)

// idBytes is the entropy of a session id (256 bits).
const idBytes = 32

type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	rand  func([]byte) (int, error)
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		rand:  rand.Read,
	}
}

// Create stores a new session for a freshly logged-in user.
// The lifetime is the configured TTL, shortened to the token's exp claim
// when the token is a JWT that carries one.
func (s *Service) Create(ctx context.Context, token string, user domain.SessionUser) (domain.Session, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	if exp, ok := tokenExpiry(token); ok {
		if !exp.After(now) {
			return domain.Session{}, domain.ErrTokenExpired()
		}
		if exp.Before(expiresAt) {
			expiresAt = exp
		}
	}

	id, err := s.newID()
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		ID:        id,
		Token:     token,
		User:      user,
		LoggedIn:  true,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return domain.Session{}, err
	}

	metrics.RecordSession("created")
	logger.WithCtx(ctx).Info().
		Str("user_id", user.ID).
		Time("expires_at", expiresAt).
		Msg("session_created")

	return sess, nil
}

// Current resolves a session id to a live session. Every failure to do so
// is reported as domain.ErrUnauthenticated; store outages pass through.
func (s *Service) Current(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, domain.ErrUnauthenticated()
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if domain.Is(err, "session_not_found") {
			return domain.Session{}, domain.ErrUnauthenticated()
		}
		return domain.Session{}, err
	}

	if !sess.Valid(s.now()) {
		if err := s.store.Delete(ctx, id); err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Msg("expired_session_delete_failed")
		}
		metrics.RecordSession("expired")
		return domain.Session{}, domain.ErrUnauthenticated()
	}

	return sess, nil
}

// Destroy ends a session. Unknown or empty ids are a no-op.
func (s *Service) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.RecordSession("destroyed")
	return nil
}

func (s *Service) newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := s.rand(b); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// upstream service owns verification. Opaque tokens report false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}

// IsUnauthenticated reports whether err means "no usable session".
func IsUnauthenticated(err error) bool {
	var de *domain.Error
	return errors.As(err, &de) && de.Kind == domain.KindAuth
}
