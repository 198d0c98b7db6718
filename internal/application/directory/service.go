package directory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
	ctxpkg "github.com/baechuer/admin-console/internal/pkg/context"
	"github.com/baechuer/admin-console/internal/validation"
)

type CreateInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role" validate:"required,max=50"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name   *string `json:"name" validate:"omitnil,min=1,max=100"`
	Email  *string `json:"email" validate:"omitnil,email,max=254"`
	Role   *string `json:"role" validate:"omitnil,min=1,max=50"`
	Status *string `json:"status" validate:"omitnil,oneof=active inactive"`
}

type Service struct {
	repo   Repository
	events EventPublisher
	ids    *idGenerator
	now    func() time.Time
}

// NewService wires the directory. events may be nil.
func NewService(repo Repository, events EventPublisher) *Service {
	return &Service{
		repo:   repo,
		events: events,
		ids:    &idGenerator{now: time.Now, rand: rand.Reader},
		now:    time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.DirectoryUser, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (domain.DirectoryUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.DirectoryUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if err := validation.Struct(in); err != nil {
		return domain.DirectoryUser{}, err
	}

	u := domain.DirectoryUser{
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		Status:    domain.StatusActive,
		CreatedAt: s.now().UTC(),
	}
	var err error
	for attempt := 1; ; attempt++ {
		if u.ID, err = s.ids.next(); err != nil {
			return domain.DirectoryUser{}, err
		}
		var created domain.DirectoryUser
		created, err = s.repo.Create(ctx, u)
		if err == nil {
			u = created
			break
		}
		// another replica took the id; draw a fresh one
		if !domain.Is(err, "user_id_conflict") || attempt == maxIDAttempts {
			return domain.DirectoryUser{}, err
		}
	}

	s.publish(ctx, UserCreated, u.ID, u)
	return u, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (domain.DirectoryUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}

	in.Name = trimPtr(in.Name)
	in.Email = trimPtr(in.Email)
	in.Role = trimPtr(in.Role)
	if err := validation.Struct(in); err != nil {
		return domain.DirectoryUser{}, err
	}

	patch := domain.UserPatch{Name: in.Name, Email: in.Email, Role: in.Role}
	if in.Status != nil {
		st := domain.UserStatus(*in.Status)
		patch.Status = &st
	}
	if patch.Empty() {
		return s.repo.Get(ctx, id)
	}

	u, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.DirectoryUser{}, err
	}

	s.publish(ctx, UserUpdated, u.ID, u)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, UserDeleted, id, domain.DirectoryUser{})
	return nil
}

// publish is best effort; the mutation already happened.
func (s *Service) publish(ctx context.Context, kind ChangeKind, id string, u domain.DirectoryUser) {
	if s.events == nil {
		return
	}
	evt := UserChangedEvent{
		Kind:       kind,
		UserID:     id,
		User:       u,
		OccurredAt: s.now().UTC(),
		RequestID:  ctxpkg.GetRequestID(ctx),
	}
	if err := s.events.PublishUserChanged(ctx, evt); err != nil {
		logger.WithCtx(ctx).Warn().
			Err(err).
			Str("event", kind.RoutingKey()).
			Str("user_id", id).
			Msg("directory_event_publish_failed")
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

const (
	maxIDAttempts = 3
	idSuffixBytes = 4
)

// idGenerator yields "<ms>-<hex>" ids. The millisecond part is bumped
// forward within a process; the random suffix separates processes that
// issue an id in the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
	rand io.Reader
}

func (g *idGenerator) next() (string, error) {
	var suffix [idSuffixBytes]byte
	if _, err := io.ReadFull(g.rand, suffix[:]); err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return strconv.FormatInt(ms, 10) + "-" + hex.EncodeToString(suffix[:]), nil
}
