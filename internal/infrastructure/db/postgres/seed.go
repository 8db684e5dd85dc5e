package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

type SeedUser struct {
	Email string
	Name  string
	Pass  string
}

// DevSeeds is the demo account created in ENV=dev.
var DevSeeds = []SeedUser{
	{Email: "demo@example.com", Name: "Demo User", Pass: "DemoPassword123!"},
}

// SeedUsers creates each seed that is not already present. Restart safe.
func SeedUsers(ctx context.Context, repo SeederRepo, hasher SeederHasher, seeds []SeedUser) int {
	created := 0
	for _, s := range seeds {
		if _, err := repo.GetByEmail(ctx, s.Email); err == nil {
			continue
		} else if !domain.Is(err, "user_not_found") {
			logger.Logger.Warn().Err(err).Str("email", s.Email).Msg("seed lookup failed")
			continue
		}

		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			logger.Logger.Warn().Err(err).Str("email", s.Email).Msg("seed hash failed")
			continue
		}

		u := domain.User{
			ID:            uuid.NewString(),
			Email:         s.Email,
			PasswordHash:  hash,
			Name:          s.Name,
			IsActive:      true,
			EmailVerified: true,
		}
		if _, err := repo.Create(ctx, u); err != nil {
			continue
		}
		created++
	}

	logger.Logger.Info().Int("created", created).Msg("users seeded")
	return created
}
