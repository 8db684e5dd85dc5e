package memory

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
)

// NoopPublisher logs account events instead of sending them.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishUserRegistered(ctx context.Context, evt accounts.UserRegisteredEvent) error {
	logger.WithCtx(ctx).Debug().Str("user_id", evt.UserID).Msg("noop publish user_registered")
	return nil
}

func (p *NoopPublisher) PublishUserDeactivated(ctx context.Context, evt accounts.UserDeactivatedEvent) error {
	logger.WithCtx(ctx).Debug().Str("user_id", evt.UserID).Msg("noop publish user_deactivated")
	return nil
}
