package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

type userEntry struct {
	seq  int64
	user domain.User
}

type UserRepo struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[string]userEntry
	byEmail map[string]string // email -> userID
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]userEntry),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return r.byID[id].user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return e.user, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}

	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now

	r.seq++
	r.byID[u.ID] = userEntry{seq: r.seq, user: u}
	r.byEmail[u.Email] = u.ID
	return u, nil
}

// ListActive returns active users in insertion order.
func (r *UserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	entries := make([]userEntry, 0, len(r.byID))
	for _, e := range r.byID {
		if e.user.IsActive {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]domain.User, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.user)
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	e.user = p.Apply(e.user)
	e.user.UpdatedAt = r.now()
	r.byID[id] = e
	return e.user, nil
}
