package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromRDB(rdb), mr
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]domain.User
	getByID int
	getErr  error
}

func newFakeUserRepo(us ...domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]domain.User{}}
	for _, u := range us {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getByID++
	if f.getErr != nil {
		return domain.User{}, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u = p.Apply(u)
	f.users[id] = u
	return u, nil
}

func (f *fakeUserRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getByID
}
