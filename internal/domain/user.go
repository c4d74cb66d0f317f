package domain

import "time"

// Role controls what a caller may do with tickets.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// CanTriage reports whether the role may mutate tickets it does not own.
func (r Role) CanTriage() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is the domain model for registered identities.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
