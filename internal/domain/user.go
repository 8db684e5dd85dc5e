package domain

import "time"

// User is the identity record. Email is compared as an opaque, case-sensitive
// string: it is never normalized.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	AvatarURL     *string
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserPatch carries the mutable fields for an update. Nil fields are left untouched.
type UserPatch struct {
	Name          *string
	AvatarURL     *string
	IsActive      *bool
	EmailVerified *bool
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.AvatarURL == nil && p.IsActive == nil && p.EmailVerified == nil
}

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		v := *p.AvatarURL
		u.AvatarURL = &v
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
	return u
}

// PublicUser is the sanitized view of a User. It has no password field at all,
// so it cannot leak the secret regardless of how it is serialized.
type PublicUser struct {
	ID            string
	Email         string
	Name          string
	AvatarURL     *string
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public strips the password secret.
func (u User) Public() PublicUser {
	return PublicUser{
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
