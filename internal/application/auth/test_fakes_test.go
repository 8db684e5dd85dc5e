package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID    map[string]domain.User
	byEmail map[string]string

	getByEmailErr error
	createErr     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]domain.User{},
		byEmail: map[string]string{},
	}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return f.byID[id], nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u.ID
	return u, nil
}

func (f *fakeUserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.User
	for _, u := range f.byID {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u = p.Apply(u)
	f.byID[id] = u
	return u, nil
}

func (f *fakeUserRepo) setActive(id string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.IsActive = active
	f.byID[id] = u
}

type fakeHasher struct {
	mu       sync.Mutex
	compares int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()

	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeIssuer emits "access:<sub>:<n>" / "refresh:<sub>:<n>" so every pair is distinct.
type fakeIssuer struct {
	mu      sync.Mutex
	n       int
	issueFn func(domain.Claims) (domain.TokenPair, error)
	expired map[string]bool
}

func (f *fakeIssuer) Issue(ctx context.Context, c domain.Claims) (domain.TokenPair, error) {
	if f.issueFn != nil {
		return f.issueFn(c)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return domain.TokenPair{
		AccessToken:  fmt.Sprintf("access:%s:%d", c.Subject, f.n),
		RefreshToken: fmt.Sprintf("refresh:%s:%d", c.Subject, f.n),
	}, nil
}

func (f *fakeIssuer) VerifyRefresh(token string) (domain.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "refresh" {
		return domain.Claims{}, domain.ErrTokenInvalid()
	}
	if f.expired[token] {
		return domain.Claims{}, domain.ErrTokenExpired()
	}
	return domain.Claims{Subject: parts[1]}, nil
}

type fakeLedger struct {
	mu sync.Mutex

	users   *fakeUserRepo
	now     func() time.Time
	byToken map[string]domain.RefreshToken

	saveErr error
	findErr error
}

func newFakeLedger(users *fakeUserRepo, now func() time.Time) *fakeLedger {
	return &fakeLedger{users: users, now: now, byToken: map[string]domain.RefreshToken{}}
}

func (l *fakeLedger) Save(ctx context.Context, userID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.saveErr != nil {
		return l.saveErr
	}
	now := l.now()
	l.byToken[token] = domain.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(domain.RefreshTokenRetention),
		CreatedAt: now,
	}
	return nil
}

func (l *fakeLedger) FindByToken(ctx context.Context, token string) (domain.RefreshToken, domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findErr != nil {
		return domain.RefreshToken{}, domain.User{}, l.findErr
	}
	rt, ok := l.byToken[token]
	if !ok {
		return domain.RefreshToken{}, domain.User{}, domain.ErrRefreshTokenInvalid()
	}
	u, err := l.users.GetByID(ctx, rt.UserID)
	if err != nil {
		return domain.RefreshToken{}, domain.User{}, err
	}
	return rt, u, nil
}

func (l *fakeLedger) DeleteByUserAndToken(ctx context.Context, userID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rt, ok := l.byToken[token]; ok && rt.UserID == userID {
		delete(l.byToken, token)
	}
	return nil
}

func (l *fakeLedger) DeleteByToken(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byToken, token)
	return nil
}

func (l *fakeLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byToken)
}

/*
Service factory for tests
*/

type testEnv struct {
	svc    *Service
	users  *fakeUserRepo
	hasher *fakeHasher
	issuer *fakeIssuer
	ledger *fakeLedger
	audits *[]auditEntry
	clock  *time.Time
}

func newSvcForTest(t *testing.T) *testEnv {
	t.Helper()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := &now
	nowFn := func() time.Time { return *clock }

	users := newFakeUserRepo()
	hasher := &fakeHasher{}
	issuer := &fakeIssuer{expired: map[string]bool{}}
	ledger := newFakeLedger(users, nowFn)
	store := accounts.NewStore(users, hasher, nil)

	audits := &[]auditEntry{}
	svc := NewService(store, issuer, ledger).
		WithClock(nowFn).
		WithAudit(func(_ context.Context, action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			*audits = append(*audits, auditEntry{action: action, fields: cp})
		})

	return &testEnv{
		svc:    svc,
		users:  users,
		hasher: hasher,
		issuer: issuer,
		ledger: ledger,
		audits: audits,
		clock:  clock,
	}
}

func (e *testEnv) register(t *testing.T, email, pw, name string) AuthResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), RegisterInput{Email: email, Password: pw, Name: name})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

/*
Small assertions
*/

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}
