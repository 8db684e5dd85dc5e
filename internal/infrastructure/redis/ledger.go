package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// UserLookup resolves the owner of a ledger row.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// Ledger implements the refresh token ledger on Redis:
// - rt:<token>  -> hash{user_id, expires_at, created_at} (unix ms) with TTL
// - rtu:<uid>   -> set(token), index of a user's live tokens
// The key TTL equals the retention window, so Redis purges rows on its own;
// expires_at is still returned so callers can check expiry on read.
type Ledger struct {
	rdb   *goredis.Client
	users UserLookup
	now   func() time.Time

	rtPrefix   string
	userPrefix string
}

func NewLedger(c *Client, users UserLookup) *Ledger {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &Ledger{
		rdb:        rdb,
		users:      users,
		now:        time.Now,
		rtPrefix:   "rt:",
		userPrefix: "rtu:",
	}
}

var errNotConfigured = errors.New("redis ledger not configured")

func (l *Ledger) Save(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrMissingField("user_id")
	}
	if strings.TrimSpace(token) == "" {
		return domain.ErrMissingField("token")
	}
	if l.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}

	now := l.now()
	exp := now.Add(domain.RefreshTokenRetention)
	rtKey := l.rtPrefix + token
	idxKey := l.userPrefix + userID

	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, rtKey,
			"user_id", userID,
			"expires_at", strconv.FormatInt(exp.UnixMilli(), 10),
			"created_at", strconv.FormatInt(now.UnixMilli(), 10),
		)
		p.PExpire(ctx, rtKey, domain.RefreshTokenRetention)
		p.SAdd(ctx, idxKey, token)
		p.PExpire(ctx, idxKey, domain.RefreshTokenRetention)
		return nil
	})
	if err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (l *Ledger) FindByToken(ctx context.Context, token string) (domain.RefreshToken, domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.RefreshToken{}, domain.User{}, domain.ErrRefreshTokenInvalid()
	}
	if l.rdb == nil {
		return domain.RefreshToken{}, domain.User{}, domain.ErrRedisUnavailable(errNotConfigured)
	}

	vals, err := l.rdb.HGetAll(ctx, l.rtPrefix+token).Result()
	if err != nil {
		return domain.RefreshToken{}, domain.User{}, domain.ErrRedisUnavailable(err)
	}
	rt, err := parseRow(token, vals)
	if err != nil {
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

// deleteIfOwner removes rt:<token> only when it belongs to ARGV[1].
const deleteIfOwner = `
local uid = redis.call("HGET", KEYS[1], "user_id")
if not uid or uid ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[2])
return 1
`

func (l *Ledger) DeleteByUserAndToken(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return nil
	}
	if l.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}

	keys := []string{l.rtPrefix + token, l.userPrefix + userID}
	if err := l.rdb.Eval(ctx, deleteIfOwner, keys, userID, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (l *Ledger) DeleteByToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if l.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}

	uid, err := l.rdb.HGet(ctx, l.rtPrefix+token, "user_id").Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return domain.ErrRedisUnavailable(err)
	}
	return l.DeleteByUserAndToken(ctx, uid, token)
}

// CountForUser reports the size of the user's token index.
func (l *Ledger) CountForUser(ctx context.Context, userID string) (int64, error) {
	if l.rdb == nil {
		return 0, domain.ErrRedisUnavailable(errNotConfigured)
	}
	return l.rdb.SCard(ctx, l.userPrefix+userID).Result()
}

// ---- helpers ----

func parseRow(token string, vals map[string]string) (domain.RefreshToken, error) {
	uid := strings.TrimSpace(vals["user_id"])
	if uid == "" {
		return domain.RefreshToken{}, errors.New("empty uid")
	}
	exp, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	created, err := strconv.ParseInt(vals["created_at"], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	return domain.RefreshToken{
		Token:     token,
		UserID:    uid,
		ExpiresAt: time.UnixMilli(exp).UTC(),
		CreatedAt: time.UnixMilli(created).UTC(),
	}, nil
}
