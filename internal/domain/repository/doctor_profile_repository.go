package repository

import (
	"context"

	"clinic-scheduling/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	FindAll(ctx context.Context, db *gorm.DB, filter entity.DoctorFilter) ([]entity.DoctorProfile, error)
	UpdateSlots(ctx context.Context, db *gorm.DB, userID uuid.UUID, labels entity.SlotLabels) (int64, error)
	// Update writes specialization, biography and the owner's full name.
	Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
	// SetActive flips is_active on the doctor's user account.
	SetActive(ctx context.Context, db *gorm.DB, userID uuid.UUID, active bool) (int64, error)
}
