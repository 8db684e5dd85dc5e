package dto

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// TokenPairView is the wire shape returned by register, login and refresh.
type TokenPairView struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func NewTokenPairView(p domain.TokenPair) TokenPairView {
	return TokenPairView{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// UserView is the sanitized user payload. There is no password field.
type UserView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AvatarURL     *string   `json:"avatarUrl,omitempty"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewUserView(u domain.PublicUser) UserView {
	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func NewUserViews(us []domain.User) []UserView {
	out := make([]UserView, 0, len(us))
	for _, u := range us {
		out = append(out, NewUserView(u.Public()))
	}
	return out
}

type HealthView struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
