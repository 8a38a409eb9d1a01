package service

import (
	"context"

	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	// Record writes an audit entry inside tx. A failed write is logged and
	// rolled back to a savepoint so the surrounding transaction survives.
	Record(ctx context.Context, tx *gorm.DB, actor uuid.UUID, action string, appointmentID *uuid.UUID, oldValue, newValue interface{})
	History(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) ([]entity.AuditLog, error)
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, actor uuid.UUID, action string, appointmentID *uuid.UUID, oldValue, newValue interface{}) {
	auditLog := &entity.AuditLog{
		Action:        action,
		AppointmentID: appointmentID,
		Metadata: entity.JSON{
			"old_value": oldValue,
			"new_value": newValue,
		},
	}
	if actor != uuid.Nil {
		auditLog.UserID = &actor
	}

	// nested Transaction issues SAVEPOINT / ROLLBACK TO SAVEPOINT
	err := tx.Transaction(func(sp *gorm.DB) error {
		return s.auditRepo.Create(ctx, sp, auditLog)
	})
	if err != nil {
		s.log.Warnf("Failed to create audit log %s: %+v", action, err)
	}
}

func (s *auditService) History(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) ([]entity.AuditLog, error) {
	return s.auditRepo.FindByAppointmentID(ctx, db, appointmentID)
}
