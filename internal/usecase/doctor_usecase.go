package usecase

import (
	"context"
	"strings"
	"time"

	"clinic-scheduling/internal/converter"
	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/internal/service"
	"clinic-scheduling/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type DoctorUsecase interface {
	CreateDoctor(ctx context.Context, claims *entity.Claims, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	UpdateSlots(ctx context.Context, claims *entity.Claims, doctorID uuid.UUID, req *dto.UpdateSlotsRequest) (*dto.DoctorResponse, error)
	UpdateDoctor(ctx context.Context, claims *entity.Claims, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	// DeactivateDoctor removes a doctor from booking. The account and its
	// history stay; upcoming scheduled appointments are cancelled.
	DeactivateDoctor(ctx context.Context, claims *entity.Claims, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	ListDoctors(ctx context.Context, req *dto.ListDoctorsRequest) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	tx           database.Transactor
	log          *logrus.Logger
	guard        AuthorizationGuard
	userRepo     repository.UserRepository
	doctorRepo   repository.DoctorProfileRepository
	appointments repository.AppointmentRepository
	auditService service.AuditService
	slotCache    service.SlotCache
	now          func() time.Time
}

func NewDoctorUsecase(
	tx database.Transactor,
	log *logrus.Logger,
	guard AuthorizationGuard,
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorProfileRepository,
	appointments repository.AppointmentRepository,
	auditService service.AuditService,
	slotCache service.SlotCache,
) DoctorUsecase {
	return &doctorUsecase{
		tx:           tx,
		log:          log,
		guard:        guard,
		userRepo:     userRepo,
		doctorRepo:   doctorRepo,
		appointments: appointments,
		auditService: auditService,
		slotCache:    slotCache,
		now:          time.Now,
	}
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, claims *entity.Claims, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleAdmin); err != nil {
		return nil, err
	}

	labels, err := normaliseSlotLabels(req.SlotLabels)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, apperror.Internal(err)
	}

	user := entity.NewUser(entity.RoleIDDoctor, req.Email, req.FullName, string(hashedPassword))
	profile := &entity.DoctorProfile{
		UserID:         user.ID,
		Specialization: strings.TrimSpace(req.Specialization),
		SlotLabels:     labels,
		Biography:      req.Biography,
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.userRepo.Create(ctx, tx, user); err != nil {
			if database.IsUniqueViolation(err, "email") {
				return ErrEmailAlreadyExists
			}
			u.log.Warnf("Failed to create doctor user: %+v", err)
			return apperror.Internal(err)
		}

		if err := u.doctorRepo.Create(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to create doctor profile: %+v", err)
			return apperror.Internal(err)
		}

		profile.User = *user
		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionDoctorCreate, nil, nil, converter.DoctorProfileToResponse(profile))
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Doctor created: id=%s specialization=%s", user.ID, profile.Specialization)
	return converter.DoctorProfileToResponse(profile), nil
}

// UpdateSlots replaces the doctor's daily slot labels and drops every cached
// free-slot list of that doctor.
func (u *doctorUsecase) UpdateSlots(ctx context.Context, claims *entity.Claims, doctorID uuid.UUID, req *dto.UpdateSlotsRequest) (*dto.DoctorResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleAdmin); err != nil {
		return nil, err
	}

	labels, err := normaliseSlotLabels(req.SlotLabels)
	if err != nil {
		return nil, err
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		rows, err := u.doctorRepo.UpdateSlots(ctx, tx, doctorID, labels)
		if err != nil {
			u.log.Warnf("Failed to update slots of doctor %s: %+v", doctorID, err)
			return apperror.Internal(err)
		}
		if rows == 0 {
			return ErrDoctorNotFound
		}

		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionDoctorSlots, nil, nil, map[string]interface{}{
			"doctor_id":   doctorID,
			"slot_labels": labels,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.slotCache.InvalidateDoctor(ctx, doctorID)

	return u.GetDoctor(ctx, doctorID)
}

func (u *doctorUsecase) UpdateDoctor(ctx context.Context, claims *entity.Claims, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleAdmin); err != nil {
		return nil, err
	}

	var profile *entity.DoctorProfile
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		profile, err = u.doctorRepo.FindByUserID(ctx, tx, doctorID)
		if err != nil {
			u.log.Warnf("Failed to find doctor profile: %+v", err)
			return apperror.Internal(err)
		}
		if profile == nil {
			return ErrDoctorNotFound
		}

		oldValue := converter.DoctorProfileToResponse(profile)

		if name := strings.TrimSpace(req.FullName); name != "" {
			profile.User.FullName = name
		}
		if specialization := strings.TrimSpace(req.Specialization); specialization != "" {
			profile.Specialization = specialization
		}
		if req.Biography != "" {
			profile.Biography = req.Biography
		}

		if err := u.doctorRepo.Update(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to update doctor profile %s: %+v", doctorID, err)
			return apperror.Internal(err)
		}

		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionDoctorUpdate, nil, oldValue, converter.DoctorProfileToResponse(profile))
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Doctor updated: id=%s", doctorID)
	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorUsecase) DeactivateDoctor(ctx context.Context, claims *entity.Claims, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleAdmin); err != nil {
		return nil, err
	}

	var cancelled int64
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		rows, err := u.doctorRepo.SetActive(ctx, tx, doctorID, false)
		if err != nil {
			u.log.Warnf("Failed to deactivate doctor %s: %+v", doctorID, err)
			return apperror.Internal(err)
		}
		if rows == 0 {
			return ErrDoctorNotFound
		}

		cancelled, err = u.appointments.CancelScheduledForDoctor(ctx, tx, doctorID, u.now())
		if err != nil {
			u.log.Warnf("Failed to cancel appointments of doctor %s: %+v", doctorID, err)
			return apperror.Internal(err)
		}

		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionDoctorDeactivate, nil, nil, map[string]interface{}{
			"doctor_id":              doctorID,
			"cancelled_appointments": cancelled,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.slotCache.InvalidateDoctor(ctx, doctorID)

	u.log.Infof("Doctor deactivated: id=%s cancelled=%d", doctorID, cancelled)
	return u.GetDoctor(ctx, doctorID)
}

// ListDoctors returns active doctors. Period AM keeps doctors with a slot
// starting before noon, PM those with a slot starting at noon or later.
func (u *doctorUsecase) ListDoctors(ctx context.Context, req *dto.ListDoctorsRequest) (*dto.DoctorListResponse, error) {
	period := strings.ToUpper(strings.TrimSpace(req.Period))
	if period != "" && period != entity.PeriodAM && period != entity.PeriodPM {
		return nil, ErrInvalidPeriod
	}

	profiles, err := u.doctorRepo.FindAll(ctx, u.tx.DB(ctx), entity.DoctorFilter{
		Name:      strings.TrimSpace(req.Name),
		Specialty: strings.TrimSpace(req.Specialty),
	})
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, apperror.Internal(err)
	}

	if period != "" {
		filtered := profiles[:0]
		for _, profile := range profiles {
			if profile.SlotLabels.HasSlotIn(period) {
				filtered = append(filtered, profile)
			}
		}
		profiles = filtered
	}

	doctors := converter.DoctorProfilesToResponses(profiles)

	return &dto.DoctorListResponse{
		Doctors: doctors,
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.doctorRepo.FindByUserID(ctx, u.tx.DB(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, apperror.Internal(err)
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorProfileToResponse(profile), nil
}

func normaliseSlotLabels(raw []string) (entity.SlotLabels, error) {
	labels := make(entity.SlotLabels, 0, len(raw))
	for _, label := range raw {
		normalised, err := entity.ParseSlotLabel(label)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInvalidArgument, err.Error(), err)
		}
		labels = append(labels, normalised)
	}
	return labels, nil
}
