package usecase

import (
	"context"

	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/pkg/apperror"

	"github.com/sirupsen/logrus"
)

// AuthorizationGuard answers every failed check with the same
// ErrUnauthorized so callers cannot tell which check failed.
type AuthorizationGuard interface {
	Authorize(claims *entity.Claims, required entity.UserRole) error
	ResolvePatient(ctx context.Context, claims *entity.Claims) (*entity.PatientProfile, error)
	AuthorizeOwner(ctx context.Context, claims *entity.Claims, appointment *entity.Appointment) (*entity.PatientProfile, error)
}

type authorizationGuard struct {
	tx          database.Transactor
	log         *logrus.Logger
	patientRepo repository.PatientProfileRepository
}

func NewAuthorizationGuard(
	tx database.Transactor,
	log *logrus.Logger,
	patientRepo repository.PatientProfileRepository,
) AuthorizationGuard {
	return &authorizationGuard{
		tx:          tx,
		log:         log,
		patientRepo: patientRepo,
	}
}

func (g *authorizationGuard) Authorize(claims *entity.Claims, required entity.UserRole) error {
	if !claims.Valid() || claims.Role != required {
		return ErrUnauthorized
	}
	return nil
}

// ResolvePatient maps the caller's identity to a patient directory entry.
func (g *authorizationGuard) ResolvePatient(ctx context.Context, claims *entity.Claims) (*entity.PatientProfile, error) {
	if !claims.Valid() || claims.Email == "" {
		return nil, ErrUnauthorized
	}

	patient, err := g.patientRepo.FindByEmail(ctx, g.tx.DB(ctx), claims.Email)
	if err != nil {
		g.log.Warnf("Failed to resolve patient %s: %+v", claims.Email, err)
		return nil, apperror.Internal(err)
	}
	if patient == nil {
		return nil, ErrUnauthorized
	}
	return patient, nil
}

func (g *authorizationGuard) AuthorizeOwner(ctx context.Context, claims *entity.Claims, appointment *entity.Appointment) (*entity.PatientProfile, error) {
	patient, err := g.ResolvePatient(ctx, claims)
	if err != nil {
		return nil, err
	}
	if appointment == nil || patient.UserID != appointment.PatientID {
		return nil, ErrUnauthorized
	}
	return patient, nil
}
