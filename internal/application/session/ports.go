package session

import (
	"context"

	"github.com/baechuer/admin-console/internal/domain"
)

// Store persists whole sessions. Get returns domain.ErrSessionNotFound for
// unknown ids; Delete of an unknown id is not an error.
type Store interface {
	Save(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}
