package entity

import "strings"

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// UserRole is the tagged role carried by identity claims.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleDoctor  UserRole = "doctor"
	RolePatient UserRole = "patient"
)

// Role ID constants, seeded by the initial migration
const (
	RoleIDAdmin   = 1
	RoleIDDoctor  = 2
	RoleIDPatient = 3
)

// ParseUserRole returns the role named by s and whether it is known.
func ParseUserRole(s string) (UserRole, bool) {
	switch r := UserRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return r, true
	default:
		return "", false
	}
}

// RoleFromID maps a roles.id to its tagged role.
func RoleFromID(id int) (UserRole, bool) {
	switch id {
	case RoleIDAdmin:
		return RoleAdmin, true
	case RoleIDDoctor:
		return RoleDoctor, true
	case RoleIDPatient:
		return RolePatient, true
	default:
		return "", false
	}
}

func (r UserRole) String() string {
	return string(r)
}
