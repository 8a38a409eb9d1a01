package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseUserRole(t *testing.T) {
	r, ok := ParseUserRole(" Doctor ")
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, r)

	_, ok = ParseUserRole("nurse")
	assert.False(t, ok)
}

func TestClaimsValid(t *testing.T) {
	var nilClaims *Claims
	assert.False(t, nilClaims.Valid())
	assert.False(t, (&Claims{Role: RolePatient}).Valid())
	assert.False(t, (&Claims{UserID: uuid.New(), Role: "nurse"}).Valid())
	assert.True(t, (&Claims{UserID: uuid.New(), Role: RolePatient}).Valid())
}
