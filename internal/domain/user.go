package domain

import "time"

// SessionUser is the normalized identity returned by the upstream auth service.
// All fields are always populated.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// DirectoryUser is a record of the user directory.
type DirectoryUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Status    UserStatus
	CreatedAt time.Time
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Name   *string
	Email  *string
	Role   *string
	Status *UserStatus
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Status == nil
}

// Apply returns u with the patch fields applied.
func (p UserPatch) Apply(u DirectoryUser) DirectoryUser {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return u
}
