package users

import (
	"time"

	"github.com/google/uuid"
)

// Roles assignable to a user. The role drives the daily AI token allowance.
const (
	RoleDeveloper = "developer"
	RoleSME       = "sme"
	RoleAdmin     = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
