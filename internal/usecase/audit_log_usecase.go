package usecase

import (
	"context"

	"clinic-scheduling/internal/converter"
	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/internal/service"
	"clinic-scheduling/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AuditLogUsecase interface {
	GetAppointmentHistory(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	tx              database.Transactor
	log             *logrus.Logger
	guard           AuthorizationGuard
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewAuditLogUsecase(
	tx database.Transactor,
	log *logrus.Logger,
	guard AuthorizationGuard,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) AuditLogUsecase {
	return &auditLogUsecase{
		tx:              tx,
		log:             log,
		guard:           guard,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

// GetAppointmentHistory returns the audit trail of one appointment, oldest first.
func (u *auditLogUsecase) GetAppointmentHistory(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID) (*dto.AuditLogListResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleAdmin); err != nil {
		return nil, err
	}

	db := u.tx.DB(ctx)
	appointment, err := u.appointmentRepo.FindByID(ctx, db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, apperror.Internal(err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	logs, err := u.auditService.History(ctx, db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find audit logs of appointment %s: %+v", appointmentID, err)
		return nil, apperror.Internal(err)
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
