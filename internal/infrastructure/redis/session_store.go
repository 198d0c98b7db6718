package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/admin-console/internal/domain"
)

// Hash fields of a stored session.
const (
	fieldToken     = "token"
	fieldUser      = "user"
	fieldLoggedIn  = "loggedIn"
	fieldCreatedAt = "createdAt"
	fieldExpiresAt = "expiresAt"
)

// SessionStore keeps each session as a hash under sess:<id>; the key
// expires together with the session.
type SessionStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewSessionStore(c *Client) *SessionStore {
	return &SessionStore{
		rdb:    unwrap(c),
		prefix: "sess:",
	}
}

// Save replaces the whole session.
func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	if strings.TrimSpace(sess.ID) == "" {
		return domain.ErrMissingField("id")
	}
	if s.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}

	user, err := json.Marshal(sess.User)
	if err != nil {
		return domain.ErrInternal(err)
	}
	loggedIn := "false"
	if sess.LoggedIn {
		loggedIn = "true"
	}

	key := s.prefix + sess.ID
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			fieldToken, sess.Token,
			fieldUser, string(user),
			fieldLoggedIn, loggedIn,
			fieldCreatedAt, sess.CreatedAt.UTC().Format(time.RFC3339Nano),
			fieldExpiresAt, sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
		)
		if !sess.ExpiresAt.IsZero() {
			p.ExpireAt(ctx, key, sess.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, domain.ErrSessionNotFound()
	}
	if s.rdb == nil {
		return domain.Session{}, domain.ErrRedisUnavailable(errNotConfigured)
	}

	vals, err := s.rdb.HGetAll(ctx, s.prefix+id).Result()
	if err != nil {
		return domain.Session{}, domain.ErrRedisUnavailable(err)
	}
	if len(vals) == 0 {
		return domain.Session{}, domain.ErrSessionNotFound()
	}

	sess, err := decodeSession(id, vals)
	if err != nil {
		// a corrupt entry is as good as no entry
		_ = s.rdb.Del(ctx, s.prefix+id).Err()
		return domain.Session{}, domain.ErrSessionNotFound()
	}
	return sess, nil
}

// Delete is idempotent.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if s.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}
	if err := s.rdb.Del(ctx, s.prefix+id).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func decodeSession(id string, vals map[string]string) (domain.Session, error) {
	token := vals[fieldToken]
	if token == "" {
		return domain.Session{}, errors.New("session without token")
	}

	var user domain.SessionUser
	if err := json.Unmarshal([]byte(vals[fieldUser]), &user); err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		ID:       id,
		Token:    token,
		User:     user,
		LoggedIn: vals[fieldLoggedIn] == "true",
	}

	var err error
	if sess.CreatedAt, err = parseTime(vals[fieldCreatedAt]); err != nil {
		return domain.Session{}, err
	}
	if sess.ExpiresAt, err = parseTime(vals[fieldExpiresAt]); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
