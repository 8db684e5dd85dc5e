package domain

import "time"

// RefreshTokenRetention is how long a ledger row stays valid after it is saved.
// It is tracked independently of the signed token's own exp claim.
const RefreshTokenRetention = 7 * 24 * time.Hour

// RefreshToken is one persisted refresh credential. Token is the lookup key.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the ledger row is past its stored expiration.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenPair is never persisted as a unit; only the refresh half goes to the ledger.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Claims is the identity payload embedded in both signed tokens.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// ClaimsFor builds the claim set for a user.
func ClaimsFor(u User) Claims {
	return Claims{
		Subject: u.ID,
		Email:   u.Email,
		Name:    u.Name,
	}
}
