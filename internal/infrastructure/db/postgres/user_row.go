package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

const userColumns = `id, email, password_hash, name, avatar_url, is_active, email_verified, created_at, updated_at`

type userRow struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	AvatarURL     sql.NullString
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func (ur *userRow) dest() []any {
	return []any{
		&ur.ID,
		&ur.Email,
		&ur.PasswordHash,
		&ur.Name,
		&ur.AvatarURL,
		&ur.IsActive,
		&ur.EmailVerified,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	}
}

func scanUser(s scanner) (userRow, error) {
	var ur userRow
	err := s.Scan(ur.dest()...)
	return ur, err
}

func (ur userRow) toDomain() domain.User {
	u := domain.User{
		ID:            ur.ID,
		Email:         ur.Email,
		PasswordHash:  ur.PasswordHash,
		Name:          ur.Name,
		IsActive:      ur.IsActive,
		EmailVerified: ur.EmailVerified,
		CreatedAt:     ur.CreatedAt,
		UpdatedAt:     ur.UpdatedAt,
	}
	if ur.AvatarURL.Valid {
		v := ur.AvatarURL.String
		u.AvatarURL = &v
	}
	return u
}
