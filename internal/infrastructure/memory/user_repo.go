package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/admin-console/internal/domain"
)

// Latency is the artificial delay applied per operation.
type Latency struct {
	List   time.Duration
	Get    time.Duration
	Create time.Duration
	Update time.Duration
	Delete time.Duration
}

// MockLatency mimics a slow remote backend.
var MockLatency = Latency{
	List:   time.Second,
	Get:    500 * time.Millisecond,
	Create: time.Second,
	Update: time.Second,
	Delete: 500 * time.Millisecond,
}

type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.DirectoryUser
	byEmail map[string]string // lower(email) -> id
	order   []string          // insertion order
	latency Latency
}

func NewUserRepo(seed ...domain.DirectoryUser) *UserRepo {
	r := &UserRepo{
		byID:    make(map[string]domain.DirectoryUser),
		byEmail: make(map[string]string),
	}
	for _, u := range seed {
		if _, err := r.insert(u); err != nil {
			continue // duplicates ignored
		}
	}
	return r
}

// WithLatency returns r after enabling per-operation delays.
func (r *UserRepo) WithLatency(l Latency) *UserRepo {
	r.latency = l
	return r
}

func (r *UserRepo) List(ctx context.Context) ([]domain.DirectoryUser, error) {
	if err := wait(ctx, r.latency.List); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DirectoryUser, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (domain.DirectoryUser, error) {
	if err := wait(ctx, r.latency.Get); err != nil {
		return domain.DirectoryUser{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.DirectoryUser) (domain.DirectoryUser, error) {
	if err := wait(ctx, r.latency.Create); err != nil {
		return domain.DirectoryUser{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(u)
}

func (r *UserRepo) Update(ctx context.Context, id string, patch domain.UserPatch) (domain.DirectoryUser, error) {
	if err := wait(ctx, r.latency.Update); err != nil {
		return domain.DirectoryUser{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}

	next := patch.Apply(cur)
	oldKey, newKey := emailKey(cur.Email), emailKey(next.Email)
	if newKey != oldKey {
		if _, taken := r.byEmail[newKey]; taken {
			return domain.DirectoryUser{}, domain.ErrEmailAlreadyExists()
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = id
	}

	r.byID[id] = next
	return next, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if err := wait(ctx, r.latency.Delete); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil // idempotent
	}
	delete(r.byID, id)
	delete(r.byEmail, emailKey(u.Email))
	for i, x := range r.order {
		if x == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// insert requires r.mu held for writing.
func (r *UserRepo) insert(u domain.DirectoryUser) (domain.DirectoryUser, error) {
	if u.ID == "" {
		return domain.DirectoryUser{}, domain.ErrMissingField("id")
	}
	if _, exists := r.byID[u.ID]; exists {
		return domain.DirectoryUser{}, domain.New(domain.KindConflict, "user_id_conflict", "user id already exists")
	}
	k := emailKey(u.Email)
	if _, exists := r.byEmail[k]; exists {
		return domain.DirectoryUser{}, domain.ErrEmailAlreadyExists()
	}

	r.byID[u.ID] = u
	r.byEmail[k] = u.ID
	r.order = append(r.order, u.ID)
	return u, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return domain.Wrap(domain.KindTimeout, "request_canceled", "request canceled", ctx.Err())
	case <-t.C:
		return nil
	}
}
