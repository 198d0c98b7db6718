package postgres

import (
	"context"
	"database/sql"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
)

// SeedUsers inserts the fixture users, skipping ones already present.
// Safe to call on every start.
func SeedUsers(ctx context.Context, db *sql.DB, users []domain.DirectoryUser) error {
	const q = `
INSERT INTO directory_users (id, name, email, role, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT DO NOTHING;
`
	inserted := 0
	for _, u := range users {
		res, err := db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.Role, string(u.Status), u.CreatedAt)
		if err != nil {
			return domain.ErrDBUnavailable(err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	logger.Logger.Info().Int("inserted", inserted).Int("total", len(users)).Msg("directory users seeded")
	return nil
}
