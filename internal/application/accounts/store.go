package accounts

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
)

// Store owns user records. The password hash never leaves it except inside
// domain.User values handed to the auth orchestrator.
type Store struct {
	users  UserRepo
	hasher PasswordHasher
	pub    EventPublisher

	dummyOnce sync.Once
	dummyHash string
}

func NewStore(users UserRepo, hasher PasswordHasher, pub EventPublisher) *Store {
	return &Store{users: users, hasher: hasher, pub: pub}
}

type NewAccount struct {
	Email     string
	Password  string
	Name      string
	AvatarURL *string
}

// Create registers a new active user. The email is checked before insert so a
// duplicate surfaces as email_already_exists rather than a storage error.
func (s *Store) Create(ctx context.Context, in NewAccount) (domain.User, error) {
	if in.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrMissingField("password")
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return domain.User{}, domain.ErrEmailAlreadyExists()
	case !domain.Is(err, "user_not_found"):
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	created, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		AvatarURL:    in.AvatarURL,
		IsActive:     true,
	})
	if err != nil {
		return domain.User{}, err
	}

	if s.pub != nil {
		evt := UserRegisteredEvent{UserID: created.ID, Email: created.Email, Name: created.Name}
		if perr := s.pub.PublishUserRegistered(ctx, evt); perr != nil {
			logger.WithCtx(ctx).Warn().Err(perr).Str("user_id", created.ID).Msg("publish user_registered failed")
		}
	}
	return created, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Store) FindAllActive(ctx context.Context) ([]domain.User, error) {
	return s.users.ListActive(ctx)
}

// Update fails with user_not_found when id does not exist.
func (s *Store) Update(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return domain.User{}, err
	}
	if patch.Empty() {
		return s.users.GetByID(ctx, id)
	}
	return s.users.Update(ctx, id, patch)
}

func (s *Store) Deactivate(ctx context.Context, id string) (domain.User, error) {
	inactive := false
	u, err := s.Update(ctx, id, domain.UserPatch{IsActive: &inactive})
	if err != nil {
		return domain.User{}, err
	}

	if s.pub != nil {
		if perr := s.pub.PublishUserDeactivated(ctx, UserDeactivatedEvent{UserID: u.ID}); perr != nil {
			logger.WithCtx(ctx).Warn().Err(perr).Str("user_id", u.ID).Msg("publish user_deactivated failed")
		}
	}
	return u, nil
}

func (s *Store) VerifyPassword(u domain.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return s.hasher.Compare(u.PasswordHash, password) == nil
}

// CompareDummy spends the same hashing work as VerifyPassword for a lookup that
// found no user, so unknown emails and wrong passwords take comparable time.
func (s *Store) CompareDummy(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("ms-auth-timing-equalizer")
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}
