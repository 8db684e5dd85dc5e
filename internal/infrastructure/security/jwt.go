package security

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

type JWTConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// JWTIssuer signs HS256 access/refresh pairs. Each class has its own secret
// and TTL, so a token of one class never verifies as the other.
type JWTIssuer struct {
	access  keyring
	refresh keyring
	issuer  string
	now     func() time.Time
}

type keyring struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(cfg JWTConfig) *JWTIssuer {
	return &JWTIssuer{
		access:  keyring{secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
		refresh: keyring{secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		issuer:  cfg.Issuer,
		now:     time.Now,
	}
}

type userClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Issue signs both halves concurrently; neither depends on the other.
func (s *JWTIssuer) Issue(ctx context.Context, c domain.Claims) (domain.TokenPair, error) {
	var pair domain.TokenPair
	now := s.now()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		tok, err := s.sign(s.access, c, now)
		pair.AccessToken = tok
		return err
	})
	g.Go(func() error {
		tok, err := s.sign(s.refresh, c, now)
		pair.RefreshToken = tok
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

func (s *JWTIssuer) sign(k keyring, c domain.Claims, now time.Time) (string, error) {
	if len(k.secret) == 0 {
		return "", domain.ErrTokenSignFailed(errors.New("empty signing secret"))
	}

	claims := userClaims{
		Email: c.Email,
		Name:  c.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(k.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTIssuer) VerifyAccess(token string) (domain.Claims, error) {
	return s.verify(s.access, token)
}

func (s *JWTIssuer) VerifyRefresh(token string) (domain.Claims, error) {
	return s.verify(s.refresh, token)
}

func (s *JWTIssuer) verify(k keyring, token string) (domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &userClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return k.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrTokenExpired()
		}
		return domain.Claims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*userClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return domain.Claims{}, domain.ErrTokenInvalid()
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	return domain.Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		ExpiresAt: exp,
	}, nil
}
