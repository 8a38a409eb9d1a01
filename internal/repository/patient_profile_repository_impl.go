package repository

import (
	"context"
	"errors"

	"clinic-scheduling/internal/domain/entity"
	domainRepo "clinic-scheduling/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientProfileRepository struct{}

func NewPatientProfileRepository() domainRepo.PatientProfileRepository {
	return &patientProfileRepository{}
}

func (r *patientProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	return db.WithContext(ctx).Omit("User").Create(profile).Error
}

func (r *patientProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	var profile entity.PatientProfile
	err := db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindByEmail resolves the patient directory entry for an identity.
func (r *patientProfileRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.PatientProfile, error) {
	var profile entity.PatientProfile
	err := db.WithContext(ctx).
		Joins("JOIN users ON users.id = patient_profiles.user_id").
		Where("users.email = ? AND users.is_active = ?", email, true).
		Preload("User").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *patientProfileRepository) Update(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	err := db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", profile.UserID).
		Update("full_name", profile.User.FullName).Error
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Model(&entity.PatientProfile{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]interface{}{
			"phone_number": profile.PhoneNumber,
			"address":      profile.Address,
		}).Error
}
