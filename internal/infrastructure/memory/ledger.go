package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// UserLookup resolves the owner of a ledger row.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// Ledger is an in-process refresh token ledger. Expired rows are kept until
// deleted; callers check expiry on read.
type Ledger struct {
	mu sync.RWMutex
	// token -> row
	byToken map[string]domain.RefreshToken
	// userID -> set(token)
	userTokens map[string]map[string]struct{}

	users UserLookup
	now   func() time.Time
}

func NewLedger(users UserLookup) *Ledger {
	return &Ledger{
		byToken:    make(map[string]domain.RefreshToken),
		userTokens: make(map[string]map[string]struct{}),
		users:      users,
		now:        time.Now,
	}
}

func (l *Ledger) Save(ctx context.Context, userID, token string) error {
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	if token == "" {
		return domain.ErrMissingField("token")
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.byToken[token] = domain.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(domain.RefreshTokenRetention),
		CreatedAt: now,
	}
	if l.userTokens[userID] == nil {
		l.userTokens[userID] = make(map[string]struct{})
	}
	l.userTokens[userID][token] = struct{}{}
	return nil
}

func (l *Ledger) FindByToken(ctx context.Context, token string) (domain.RefreshToken, domain.User, error) {
	l.mu.RLock()
	rt, ok := l.byToken[token]
	l.mu.RUnlock()

	if !ok {
		return domain.RefreshToken{}, domain.User{}, domain.ErrRefreshTokenInvalid()
	}

	u, err := l.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return domain.RefreshToken{}, domain.User{}, domain.ErrRefreshTokenInvalid()
		}
		return domain.RefreshToken{}, domain.User{}, err
	}
	return rt, u, nil
}

func (l *Ledger) DeleteByUserAndToken(ctx context.Context, userID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, ok := l.byToken[token]
	if !ok || rt.UserID != userID {
		return nil
	}
	l.removeLocked(rt)
	return nil
}

func (l *Ledger) DeleteByToken(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rt, ok := l.byToken[token]; ok {
		l.removeLocked(rt)
	}
	return nil
}

// PurgeExpired drops rows past their expiry.
func (l *Ledger) PurgeExpired(ctx context.Context) (int64, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, rt := range l.byToken {
		if rt.Expired(now) {
			l.removeLocked(rt)
			n++
		}
	}
	return n, nil
}

func (l *Ledger) removeLocked(rt domain.RefreshToken) {
	delete(l.byToken, rt.Token)
	if set := l.userTokens[rt.UserID]; set != nil {
		delete(set, rt.Token)
		if len(set) == 0 {
			delete(l.userTokens, rt.UserID)
		}
	}
}

// CountForUser reports how many rows the user currently holds.
func (l *Ledger) CountForUser(userID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.userTokens[userID])
}
