package dto

// -------- Core auth --------

type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Name      string  `json:"name" validate:"required"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

func (r *RegisterRequest) Validate() error { return Validate(r) }

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error { return Validate(r) }

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate is intentionally permissive: a missing token is reported by the
// refresh flow itself as refresh_token_invalid.
func (r *RefreshRequest) Validate() error { return nil }

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *LogoutRequest) Validate() error { return nil }

// -------- Users --------

type UpdateMeRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

func (r *UpdateMeRequest) Validate() error { return Validate(r) }
