package accounts

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
Lookups return domain.ErrUserNotFound when the row is absent.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
	// ListActive returns active users in creation order.
	ListActive(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt. Hash failures come back as hash_failed domain errors.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
EventPublisher
--------------
Account lifecycle events for downstream services.
Publishing is best effort: a failed publish never fails the account operation.
*/
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error
	PublishUserDeactivated(ctx context.Context, evt UserDeactivatedEvent) error
}

type UserRegisteredEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserDeactivatedEvent struct {
	UserID string `json:"user_id"`
}
