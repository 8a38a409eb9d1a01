package converter

import (
	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO.
// role is passed explicitly because Role is not always preloaded.
func UserToResponse(user *entity.User, role entity.UserRole) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      role.String(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.PatientProfile != nil {
		profile := &dto.PatientProfileResponse{
			PhoneNumber: user.PatientProfile.PhoneNumber,
			Address:     user.PatientProfile.Address,
		}
		if user.PatientProfile.DateOfBirth != nil {
			profile.DateOfBirth = user.PatientProfile.DateOfBirth.Format(entity.DateLayout)
		}
		response.PatientProfile = profile
	}

	return response
}

// PatientProfileToResponse renders a patient directory entry with its account.
func PatientProfileToResponse(profile *entity.PatientProfile) *dto.UserResponse {
	if profile == nil {
		return nil
	}
	user := profile.User
	user.PatientProfile = profile
	return UserToResponse(&user, entity.RolePatient)
}
