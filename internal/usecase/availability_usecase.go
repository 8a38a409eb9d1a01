package usecase

import (
	"context"
	"time"

	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/internal/service"
	"clinic-scheduling/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AvailabilityUsecase interface {
	// FreeSlots lists the doctor's slot labels still open on date
	// (YYYY-MM-DD, clinic time zone).
	FreeSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityResponse, error)
	// IsAvailable is the pre-write conflict check. It runs on db so callers
	// can use it inside their transaction. excludeID skips the appointment
	// being moved.
	IsAvailable(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, startTime time.Time, excludeID uuid.UUID) (bool, error)
}

type availabilityUsecase struct {
	tx              database.Transactor
	log             *logrus.Logger
	doctorRepo      repository.DoctorProfileRepository
	appointmentRepo repository.AppointmentRepository
	slotCache       service.SlotCache
	location        *time.Location
}

func NewAvailabilityUsecase(
	tx database.Transactor,
	log *logrus.Logger,
	doctorRepo repository.DoctorProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	slotCache service.SlotCache,
	location *time.Location,
) AvailabilityUsecase {
	return &availabilityUsecase{
		tx:              tx,
		log:             log,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		slotCache:       slotCache,
		location:        location,
	}
}

func (u *availabilityUsecase) FreeSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityResponse, error) {
	day, err := time.ParseInLocation(entity.DateLayout, date, u.location)
	if err != nil {
		return nil, ErrInvalidDate
	}
	date = day.Format(entity.DateLayout)

	slots, err := u.slotCache.GetOrLoad(ctx, doctorID, date, func(ctx context.Context) ([]string, error) {
		return u.computeFreeSlots(ctx, doctorID, day)
	})
	if err != nil {
		return nil, err
	}

	return &dto.AvailabilityResponse{
		DoctorID:  doctorID,
		Date:      date,
		FreeSlots: slots,
	}, nil
}

// computeFreeSlots treats an unknown or inactive doctor as having no slots.
func (u *availabilityUsecase) computeFreeSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	db := u.tx.DB(ctx)

	doctor, err := u.doctorRepo.FindByUserID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, apperror.Internal(err)
	}
	if !doctor.Bookable() || len(doctor.SlotLabels) == 0 {
		return []string{}, nil
	}

	appointments, err := u.appointmentRepo.FindOccupyingBetween(ctx, db, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		u.log.Warnf("Failed to find appointments of doctor %s: %+v", doctorID, err)
		return nil, apperror.Internal(err)
	}

	booked := make(map[string]struct{}, len(appointments))
	for _, appointment := range appointments {
		booked[entity.TimeOfDay(appointment.StartTime.In(u.location))] = struct{}{}
	}

	return doctor.SlotLabels.Free(booked), nil
}

func (u *availabilityUsecase) IsAvailable(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, startTime time.Time, excludeID uuid.UUID) (bool, error) {
	doctor, err := u.doctorRepo.FindByUserID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return false, apperror.Internal(err)
	}
	if !doctor.Bookable() {
		return false, nil
	}

	taken, err := u.appointmentRepo.ExistsOccupying(ctx, db, doctorID, startTime, excludeID)
	if err != nil {
		u.log.Warnf("Failed to check slot of doctor %s at %s: %+v", doctorID, startTime, err)
		return false, apperror.Internal(err)
	}
	return !taken, nil
}
