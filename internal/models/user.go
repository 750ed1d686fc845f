package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold. The role is resolved once at login and
// carried in the JWT; handlers turn it into a typed actor before touching
// the ledger.
const (
	RoleMentor   = "mentor"
	RoleGuardian = "guardian"
	RoleAdmin    = "admin"
)

// User is a login account. Mentors and guardians are separate profile rows
// referencing their user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
