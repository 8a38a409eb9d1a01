package repository

import (
	"context"

	"clinic-scheduling/internal/domain/entity"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByName(ctx context.Context, db *gorm.DB, name entity.UserRole) (*entity.Role, error)
}
