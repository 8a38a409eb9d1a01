package entity

import "github.com/google/uuid"

// Claims is the resolved identity of the caller of an operation.
type Claims struct {
	UserID  uuid.UUID
	Email   string
	Role    UserRole
	TokenID string
}

// Valid reports whether the claims carry a user and a known role.
func (c *Claims) Valid() bool {
	if c == nil || c.UserID == uuid.Nil {
		return false
	}
	_, ok := ParseUserRole(string(c.Role))
	return ok
}
