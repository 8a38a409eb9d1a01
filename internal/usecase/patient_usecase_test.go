package usecase

import (
	"context"
	"testing"

	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPatientProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	patient := f.patients.add("ana@example.com", "Ana")
	doctor := f.doctors.add("Dr. Sari", "General", "09:00-10:00")

	res, err := f.patientUC.GetProfile(ctx, patientClaims(patient))
	require.NoError(t, err)
	assert.Equal(t, patient.UserID, res.ID)
	assert.Equal(t, "Ana", res.FullName)

	tests := []struct {
		name   string
		claims *entity.Claims
		want   apperror.Kind
	}{
		{"doctor", doctorClaims(doctor), apperror.KindUnauthorized},
		{"admin", adminClaims(), apperror.KindUnauthorized},
		{"no claims", nil, apperror.KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.patientUC.GetProfile(ctx, tt.claims)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperror.KindOf(err))
		})
	}
}

func TestUpdatePatientProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	patient := f.patients.add("ana@example.com", "Ana")

	res, err := f.patientUC.UpdateProfile(ctx, patientClaims(patient), &dto.UpdatePatientProfileRequest{
		FullName:    " Ana Wijaya ",
		PhoneNumber: "081234567890",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Wijaya", res.FullName)
	assert.Equal(t, "ana@example.com", res.Email)
	assert.Equal(t, []string{entity.AuditActionPatientUpdate}, f.audit.recorded())

	stored, err := f.patients.FindByEmail(ctx, nil, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Ana Wijaya", stored.User.FullName)
	assert.Equal(t, "081234567890", stored.PhoneNumber)
	assert.Empty(t, stored.Address)

	_, err = f.patientUC.UpdateProfile(ctx, patientClaims(patient), &dto.UpdatePatientProfileRequest{FullName: "  "})
	require.NoError(t, err)
	assert.Len(t, f.audit.recorded(), 1, "blank fields change nothing")

	_, err = f.patientUC.UpdateProfile(ctx, adminClaims(), &dto.UpdatePatientProfileRequest{FullName: "Someone"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
