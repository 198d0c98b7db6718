package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/admin-console/internal/domain"
	ctxpkg "github.com/baechuer/admin-console/internal/pkg/context"
)

// fakeRepo is a minimal in-package Repository.
type fakeRepo struct {
	mu      sync.Mutex
	users   map[string]domain.DirectoryUser
	updates int
}

func newFakeRepo(seed ...domain.DirectoryUser) *fakeRepo {
	r := &fakeRepo{users: map[string]domain.DirectoryUser{}}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) List(context.Context) ([]domain.DirectoryUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DirectoryUser, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (domain.DirectoryUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *fakeRepo) Create(_ context.Context, u domain.DirectoryUser) (domain.DirectoryUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return domain.DirectoryUser{}, domain.New(domain.KindConflict, "user_id_conflict", "user id already exists")
	}
	for _, x := range r.users {
		if strings.EqualFold(x.Email, u.Email) {
			return domain.DirectoryUser{}, domain.ErrEmailAlreadyExists()
		}
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, p domain.UserPatch) (domain.DirectoryUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	u, ok := r.users[id]
	if !ok {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}
	u = p.Apply(u)
	r.users[id] = u
	return u, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []UserChangedEvent
	err    error
}

func (p *recordingPublisher) PublishUserChanged(_ context.Context, evt UserChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func strPtr(s string) *string { return &s }

func TestCreate_AssignsIDStatusAndTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{}
	svc := NewService(newFakeRepo(), pub)
	svc.now = func() time.Time { return now }
	svc.ids.now = svc.now

	ctx := ctxpkg.WithRequestID(context.Background(), "rid")
	u, err := svc.Create(ctx, CreateInput{Name: " Ann ", Email: "ann@example.com", Role: "user"})
	require.NoError(t, err)

	assert.Regexp(t, `^1740823200000-[0-9a-f]{8}$`, u.ID)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, domain.StatusActive, u.Status)
	assert.Equal(t, now, u.CreatedAt)

	require.Len(t, pub.events, 1)
	assert.Equal(t, UserCreated, pub.events[0].Kind)
	assert.Equal(t, "directory.user.created", pub.events[0].Kind.RoutingKey())
	assert.Equal(t, u, pub.events[0].User)
	assert.Equal(t, "rid", pub.events[0].RequestID)
}

func TestCreate_IDsDistinctWithinOneMillisecond(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(newFakeRepo(), nil)
	svc.ids.now = func() time.Time { return now }

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u, err := svc.Create(context.Background(), CreateInput{
			Name:  "U",
			Email: "u" + strings.Repeat("x", i) + "@example.com",
			Role:  "user",
		})
		require.NoError(t, err)
		require.False(t, seen[u.ID], u.ID)
		seen[u.ID] = true
	}
}

// zeroReader makes every random suffix identical.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy gone") }

func TestCreate_IDsDistinctAcrossInstances(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	a := NewService(repo, nil)
	b := NewService(repo, nil)
	a.ids.now = func() time.Time { return now }
	b.ids.now = a.ids.now

	ua, err := a.Create(context.Background(), CreateInput{Name: "A", Email: "a@example.com", Role: "user"})
	require.NoError(t, err)
	ub, err := b.Create(context.Background(), CreateInput{Name: "B", Email: "b@example.com", Role: "user"})
	require.NoError(t, err)

	assert.NotEqual(t, ua.ID, ub.ID)
	assert.Regexp(t, `^1735689600000-[0-9a-f]{8}$`, ua.ID)
	assert.Regexp(t, `^1735689600000-[0-9a-f]{8}$`, ub.ID)
}

func TestCreate_RetriesOnIDConflict(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	a := NewService(repo, nil)
	b := NewService(repo, nil)
	for _, svc := range []*Service{a, b} {
		svc.ids.now = func() time.Time { return now }
		svc.ids.rand = zeroReader{}
	}

	ua, err := a.Create(context.Background(), CreateInput{Name: "A", Email: "a@example.com", Role: "user"})
	require.NoError(t, err)
	ub, err := b.Create(context.Background(), CreateInput{Name: "B", Email: "b@example.com", Role: "user"})
	require.NoError(t, err)

	assert.Equal(t, "1735689600000-00000000", ua.ID)
	assert.Equal(t, "1735689600001-00000000", ub.ID)
	assert.Len(t, repo.users, 2)
}

func TestCreate_RandomFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	svc.ids.rand = errReader{}

	_, err := svc.Create(context.Background(), CreateInput{Name: "A", Email: "a@example.com", Role: "user"})
	assert.True(t, domain.Is(err, "random_failed"))
	assert.Empty(t, repo.users)
}

func TestCreate_Validation(t *testing.T) {
	cases := map[string]CreateInput{
		"missing name": {Email: "a@b.com", Role: "user"},
		"blank name":   {Name: "   ", Email: "a@b.com", Role: "user"},
		"bad email":    {Name: "A", Email: "nope", Role: "user"},
		"missing role": {Name: "A", Email: "a@b.com"},
		"long name":    {Name: strings.Repeat("n", 101), Email: "a@b.com", Role: "user"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newFakeRepo()
			_, err := NewService(repo, nil).Create(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Empty(t, repo.users)
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(newFakeRepo(SeedUsers()...), pub)

	_, err := svc.Create(context.Background(), CreateInput{Name: "J", Email: "JOHN@example.com", Role: "user"})
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Empty(t, pub.events)
}

func TestGet(t *testing.T) {
	svc := NewService(newFakeRepo(SeedUsers()...), nil)

	u, err := svc.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", u.Name)

	_, err = svc.Get(context.Background(), "404")
	assert.True(t, domain.Is(err, "user_not_found"))

	_, err = svc.Get(context.Background(), " ")
	assert.True(t, domain.Is(err, "user_not_found"))
}

func TestUpdate_Partial(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(newFakeRepo(SeedUsers()...), pub)

	u, err := svc.Update(context.Background(), "3", UpdateInput{Status: strPtr("active"), Name: strPtr(" Bobby ")})
	require.NoError(t, err)
	assert.Equal(t, "Bobby", u.Name)
	assert.Equal(t, domain.StatusActive, u.Status)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), u.CreatedAt)

	require.Len(t, pub.events, 1)
	assert.Equal(t, UserUpdated, pub.events[0].Kind)
}

func TestUpdate_Validation(t *testing.T) {
	cases := map[string]UpdateInput{
		"bad status": {Status: strPtr("banned")},
		"blank name": {Name: strPtr("  ")},
		"bad email":  {Email: strPtr("x")},
		"blank role": {Role: strPtr("")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newFakeRepo(SeedUsers()...)
			_, err := NewService(repo, nil).Update(context.Background(), "1", in)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Zero(t, repo.updates)
		})
	}
}

func TestUpdate_MissingUser(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Update(context.Background(), "404", UpdateInput{Name: strPtr("x")})
	assert.True(t, domain.Is(err, "user_not_found"))
}

func TestUpdate_EmptyPatchReturnsCurrent(t *testing.T) {
	repo := newFakeRepo(SeedUsers()...)
	pub := &recordingPublisher{}
	u, err := NewService(repo, pub).Update(context.Background(), "1", UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", u.Name)
	assert.Zero(t, repo.updates)
	assert.Empty(t, pub.events)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo(SeedUsers()...)
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)

	require.NoError(t, svc.Delete(context.Background(), "1"))
	assert.NotContains(t, repo.users, "1")
	require.NoError(t, svc.Delete(context.Background(), "1"))
	require.NoError(t, svc.Delete(context.Background(), ""))

	require.Len(t, pub.events, 2)
	assert.Equal(t, UserDeleted, pub.events[0].Kind)
	assert.Equal(t, "1", pub.events[0].UserID)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(newFakeRepo(), pub)

	_, err := svc.Create(context.Background(), CreateInput{Name: "A", Email: "a@b.com", Role: "user"})
	assert.NoError(t, err)
	assert.Len(t, pub.events, 1)
}
