package usecase

import (
	"context"
	"strings"

	"clinic-scheduling/internal/converter"
	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/internal/service"
	"clinic-scheduling/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PatientUsecase covers a patient's own directory entry.
type PatientUsecase interface {
	GetProfile(ctx context.Context, claims *entity.Claims) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, claims *entity.Claims, req *dto.UpdatePatientProfileRequest) (*dto.UserResponse, error)
}

type patientUsecase struct {
	tx           database.Transactor
	log          *logrus.Logger
	guard        AuthorizationGuard
	patientRepo  repository.PatientProfileRepository
	auditService service.AuditService
}

func NewPatientUsecase(
	tx database.Transactor,
	log *logrus.Logger,
	guard AuthorizationGuard,
	patientRepo repository.PatientProfileRepository,
	auditService service.AuditService,
) PatientUsecase {
	return &patientUsecase{
		tx:           tx,
		log:          log,
		guard:        guard,
		patientRepo:  patientRepo,
		auditService: auditService,
	}
}

func (u *patientUsecase) GetProfile(ctx context.Context, claims *entity.Claims) (*dto.UserResponse, error) {
	if err := u.guard.Authorize(claims, entity.RolePatient); err != nil {
		return nil, err
	}

	profile, err := u.guard.ResolvePatient(ctx, claims)
	if err != nil {
		return nil, err
	}

	return converter.PatientProfileToResponse(profile), nil
}

// UpdateProfile edits name, phone and address. Email and date of birth are
// not editable by the patient.
func (u *patientUsecase) UpdateProfile(ctx context.Context, claims *entity.Claims, req *dto.UpdatePatientProfileRequest) (*dto.UserResponse, error) {
	if err := u.guard.Authorize(claims, entity.RolePatient); err != nil {
		return nil, err
	}

	profile, err := u.guard.ResolvePatient(ctx, claims)
	if err != nil {
		return nil, err
	}

	oldValue := converter.PatientProfileToResponse(profile)

	updated := false
	if name := strings.TrimSpace(req.FullName); name != "" {
		profile.User.FullName = name
		updated = true
	}
	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" {
		profile.PhoneNumber = phone
		updated = true
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		profile.Address = address
		updated = true
	}

	if !updated {
		return oldValue, nil
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.patientRepo.Update(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to update patient profile %s: %+v", profile.UserID, err)
			return apperror.Internal(err)
		}

		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionPatientUpdate, nil, oldValue, converter.PatientProfileToResponse(profile))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.PatientProfileToResponse(profile), nil
}
