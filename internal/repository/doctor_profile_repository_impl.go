package repository

import (
	"context"
	"errors"

	"clinic-scheduling/internal/domain/entity"
	domainRepo "clinic-scheduling/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.WithContext(ctx).Omit("User").Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindAll returns doctors whose user account is active, narrowed by the
// optional name and specialty filters.
func (r *doctorProfileRepository) FindAll(ctx context.Context, db *gorm.DB, filter entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	var profiles []entity.DoctorProfile
	query := db.WithContext(ctx).
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.is_active = ?", true)

	if filter.Name != "" {
		query = query.Where("users.full_name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Specialty != "" {
		query = query.Where("doctor_profiles.specialization ILIKE ?", "%"+filter.Specialty+"%")
	}

	err := query.
		Preload("User").
		Order("users.full_name ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *doctorProfileRepository) UpdateSlots(ctx context.Context, db *gorm.DB, userID uuid.UUID, labels entity.SlotLabels) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.DoctorProfile{}).
		Where("user_id = ?", userID).
		Update("slot_labels", labels)
	return result.RowsAffected, result.Error
}

func (r *doctorProfileRepository) Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	err := db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", profile.UserID).
		Update("full_name", profile.User.FullName).Error
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Model(&entity.DoctorProfile{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]interface{}{
			"specialization": profile.Specialization,
			"biography":      profile.Biography,
		}).Error
}

func (r *doctorProfileRepository) SetActive(ctx context.Context, db *gorm.DB, userID uuid.UUID, active bool) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ? AND role_id = ?", userID, entity.RoleIDDoctor).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}
