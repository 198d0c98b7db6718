package directory

import (
	"time"

	"github.com/baechuer/admin-console/internal/domain"
)

// SeedUsers returns the fixture directory used for local development.
func SeedUsers() []domain.DirectoryUser {
	return []domain.DirectoryUser{
		{
			ID:        "1",
			Name:      "John Doe",
			Email:     "john@example.com",
			Role:      "admin",
			Status:    domain.StatusActive,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "2",
			Name:      "Jane Smith",
			Email:     "jane@example.com",
			Role:      "user",
			Status:    domain.StatusActive,
			CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "3",
			Name:      "Bob Johnson",
			Email:     "bob@example.com",
			Role:      "user",
			Status:    domain.StatusInactive,
			CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}
}
