package directory

import (
	"context"
	"time"

	"github.com/baechuer/admin-console/internal/domain"
)

// Repository is the directory datastore.
//   - Get and Update return domain.ErrUserNotFound for unknown ids.
//   - Create and Update return domain.ErrEmailAlreadyExists on a taken email.
//   - Delete of an unknown id is not an error.
type Repository interface {
	List(ctx context.Context) ([]domain.DirectoryUser, error)
	Get(ctx context.Context, id string) (domain.DirectoryUser, error)
	Create(ctx context.Context, u domain.DirectoryUser) (domain.DirectoryUser, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (domain.DirectoryUser, error)
	Delete(ctx context.Context, id string) error
}

type ChangeKind string

const (
	UserCreated ChangeKind = "created"
	UserUpdated ChangeKind = "updated"
	UserDeleted ChangeKind = "deleted"
)

// RoutingKey is the topic the event is published under.
func (k ChangeKind) RoutingKey() string { return "directory.user." + string(k) }

// UserChangedEvent is emitted after a successful mutation. User is the zero
// value for deletions.
type UserChangedEvent struct {
	Kind       ChangeKind
	UserID     string
	User       domain.DirectoryUser
	OccurredAt time.Time
	RequestID  string
}

type EventPublisher interface {
	PublishUserChanged(ctx context.Context, evt UserChangedEvent) error
}
