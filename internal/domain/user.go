package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	Password             string     `json:"-"`
	Username             string     `json:"username"`
	FullName             string     `json:"fullName"`
	Telephone            string     `json:"telephone"`
	CPF                  string     `json:"cpf"`
	ResetPasswordToken   *string    `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	Roles                []string   `json:"roles"`
	Addresses            []Address  `json:"addresses,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u User) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(u.Roles, r) {
			return true
		}
	}

	return false
}

// UserPatch holds the optional fields of a partial user update.
type UserPatch struct {
	Email    *string
	Password *string
	Username *string
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    uuid.UUID
	Roles []string
}

func (a Actor) IsAdmin() bool {
	return slices.Contains(a.Roles, RoleAdmin)
}

// CanActOn reports whether the actor may change the user with id.
func (a Actor) CanActOn(id uuid.UUID) bool {
	return a.ID == id || a.IsAdmin()
}
