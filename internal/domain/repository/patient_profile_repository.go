package repository

import (
	"context"

	"clinic-scheduling/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.PatientProfile, error)
	// Update writes phone, address and the owner's full name.
	Update(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
}
