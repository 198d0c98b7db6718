package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/admin-console/internal/domain"
)

const uniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

type userRow struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Status    string
	CreatedAt time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (domain.DirectoryUser, error) {
	var ur userRow
	if err := s.Scan(&ur.ID, &ur.Name, &ur.Email, &ur.Role, &ur.Status, &ur.CreatedAt); err != nil {
		return domain.DirectoryUser{}, err
	}
	return domain.DirectoryUser{
		ID:        ur.ID,
		Name:      ur.Name,
		Email:     ur.Email,
		Role:      ur.Role,
		Status:    domain.UserStatus(ur.Status),
		CreatedAt: ur.CreatedAt.UTC(),
	}, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.DirectoryUser, error) {
	const q = `
SELECT id, name, email, role, status, created_at
FROM directory_users
ORDER BY created_at, id;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := []domain.DirectoryUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (domain.DirectoryUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT id, name, email, role, status, created_at
FROM directory_users
WHERE id = $1
LIMIT 1;
`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DirectoryUser{}, domain.ErrUserNotFound()
		}
		return domain.DirectoryUser{}, domain.ErrDBUnavailable(err)
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.DirectoryUser) (domain.DirectoryUser, error) {
	if u.ID == "" {
		return domain.DirectoryUser{}, domain.ErrMissingField("id")
	}
	if u.Status == "" {
		u.Status = domain.StatusActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	const q = `
INSERT INTO directory_users (id, name, email, role, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, email, role, status, created_at;
`
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.Name, u.Email, u.Role, string(u.Status), u.CreatedAt,
	))
	if err != nil {
		return domain.DirectoryUser{}, mapWriteError(err)
	}
	return out, nil
}

// Update applies only the non-nil patch fields.
func (r *UserRepo) Update(ctx context.Context, id string, patch domain.UserPatch) (domain.DirectoryUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.DirectoryUser{}, domain.ErrUserNotFound()
	}

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	const q = `
UPDATE directory_users
SET name   = COALESCE($2::text, name),
    email  = COALESCE($3::text, email),
    role   = COALESCE($4::text, role),
    status = COALESCE($5::text, status)
WHERE id = $1
RETURNING id, name, email, role, status, created_at;
`
	out, err := scanUser(r.db.QueryRowContext(ctx, q, id, patch.Name, patch.Email, patch.Role, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DirectoryUser{}, domain.ErrUserNotFound()
		}
		return domain.DirectoryUser{}, mapWriteError(err)
	}
	return out, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	const q = `DELETE FROM directory_users WHERE id = $1;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// Ping backs the readiness probe.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return domain.ErrEmailAlreadyExists()
		}
		return domain.Wrap(domain.KindConflict, "user_id_conflict", "user id already exists", err)
	}
	return domain.ErrDBUnavailable(err)
}
