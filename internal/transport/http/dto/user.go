package dto

import (
	"time"

	"github.com/baechuer/admin-console/internal/application/directory"
	"github.com/baechuer/admin-console/internal/domain"
)

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r CreateUserRequest) Input() directory.CreateInput {
	return directory.CreateInput{Name: r.Name, Email: r.Email, Role: r.Role}
}

// UpdateUserRequest: absent fields stay nil and are not touched.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (r UpdateUserRequest) Input() directory.UpdateInput {
	return directory.UpdateInput{Name: r.Name, Email: r.Email, Role: r.Role, Status: r.Status}
}

type UserView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

func NewUserView(u domain.DirectoryUser) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewUserViews never returns nil so an empty directory encodes as [].
func NewUserViews(users []domain.DirectoryUser) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u))
	}
	return out
}
