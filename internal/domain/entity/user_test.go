package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u := NewUser(RoleIDDoctor, "  Sari@Clinic.TEST ", " Dr. Sari ", "hash")

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "sari@clinic.test", u.Email)
	assert.Equal(t, "Dr. Sari", u.FullName)
	assert.Equal(t, "hash", u.Password)
	assert.True(t, u.Active())

	role, ok := u.UserRole()
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, role)
}

func TestUserActive(t *testing.T) {
	inactive := false
	assert.True(t, (&User{}).Active())
	assert.False(t, (&User{IsActive: &inactive}).Active())

	_, ok := (&User{RoleID: 42}).UserRole()
	assert.False(t, ok)
}
