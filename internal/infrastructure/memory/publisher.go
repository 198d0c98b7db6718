package memory

import (
	"context"

	"github.com/baechuer/admin-console/internal/application/directory"
	"github.com/baechuer/admin-console/internal/logger"
)

// NoopPublisher logs directory events instead of sending them anywhere.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishUserChanged(ctx context.Context, evt directory.UserChangedEvent) error {
	logger.WithCtx(ctx).Debug().
		Str("routing_key", evt.Kind.RoutingKey()).
		Str("user_id", evt.UserID).
		Msg("noop_publish")
	return nil
}
