package usecase

import (
	"context"
	"errors"
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
	"gorm.io/gorm"
)

type AppointmentUsecase interface {
	BookAppointment(ctx context.Context, claims *entity.Claims, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateAppointment(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ChangeStatus(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID, req *dto.ChangeStatusRequest) (*dto.AppointmentResponse, error)
	ListForDoctor(ctx context.Context, claims *entity.Claims, req *dto.DoctorAppointmentsRequest) (*dto.AppointmentListResponse, error)
	ListForPatient(ctx context.Context, claims *entity.Claims, req *dto.PatientAppointmentsRequest) (*dto.AppointmentListResponse, error)
	GetAppointment(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	tx              database.Transactor
	log             *logrus.Logger
	guard           AuthorizationGuard
	availability    AvailabilityUsecase
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	slotCache       service.SlotCache
	location        *time.Location
	now             func() time.Time
}

func NewAppointmentUsecase(
	tx database.Transactor,
	log *logrus.Logger,
	guard AuthorizationGuard,
	availability AvailabilityUsecase,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	slotCache service.SlotCache,
	location *time.Location,
) AppointmentUsecase {
	return &appointmentUsecase{
		tx:              tx,
		log:             log,
		guard:           guard,
		availability:    availability,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		slotCache:       slotCache,
		location:        location,
		now:             time.Now,
	}
}

// BookAppointment reserves a slot for the calling patient.
//
// Flow:
// 1. Role, patient identity and arguments
// 2. Conflict check inside the transaction (fast path)
// 3. Insert; the partial unique index on (doctor_id, start_time) decides races
// 4. Invalidate the cached free slots of that doctor-day
func (u *appointmentUsecase) BookAppointment(ctx context.Context, claims *entity.Claims, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	if err := u.guard.Authorize(claims, entity.RolePatient); err != nil {
		return nil, err
	}

	patient, err := u.guard.ResolvePatient(ctx, claims)
	if err != nil {
		return nil, err
	}

	if req.PatientID != "" {
		requested, err := uuid.Parse(req.PatientID)
		if err != nil {
			return nil, ErrInvalidPatientID
		}
		if requested != patient.UserID {
			return nil, ErrUnauthorized
		}
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrInvalidDoctorID
	}

	startTime, err := u.parseStartTime(req.StartTime)
	if err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patient.UserID,
		StartTime: startTime,
		Status:    entity.AppointmentStatusScheduled,
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		available, err := u.availability.IsAvailable(ctx, tx, doctorID, startTime, uuid.Nil)
		if err != nil {
			return err
		}
		if !available {
			return ErrSlotUnavailable
		}

		if err := u.appointmentRepo.Create(ctx, tx, appointment); err != nil {
			if database.IsUniqueViolation(err, database.AppointmentSlotIndex) {
				return ErrSlotUnavailable
			}
			u.log.Warnf("Failed to create appointment: %+v", err)
			return apperror.Internal(err)
		}

		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionAppointmentCreate, &appointment.ID, nil, converter.AppointmentToResponse(appointment))
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			u.log.Infof("Slot taken: doctor=%s start=%s", doctorID, startTime.Format(time.RFC3339))
		}
		return nil, err
	}

	u.slotCache.InvalidateDay(ctx, doctorID, u.dayOf(startTime))

	u.log.Infof("Appointment booked: id=%s doctor=%s patient=%s start=%s", appointment.ID, doctorID, patient.UserID, startTime.Format(time.RFC3339))
	return converter.AppointmentToResponse(appointment), nil
}

// UpdateAppointment lets the owning patient move an appointment to another
// doctor or time, or change its status. Empty request fields are left as
// they are.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	if err := u.guard.Authorize(claims, entity.RolePatient); err != nil {
		return nil, err
	}

	current, err := u.findAppointment(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		return nil, err
	}

	if _, err := u.guard.AuthorizeOwner(ctx, claims, current); err != nil {
		return nil, err
	}

	if current.Status == entity.AppointmentStatusCompleted {
		return nil, ErrAppointmentImmutable
	}

	updated := *current
	if req.Status != "" {
		next, err := entity.ParseAppointmentStatus(req.Status)
		if err != nil {
			return nil, err
		}
		// naming the current state is a no-op only while still scheduled
		if next != current.Status || current.Status.IsTerminal() {
			if err := updated.TransitionTo(next); err != nil {
				return nil, err
			}
		}
	}

	if req.DoctorID != "" {
		if updated.DoctorID, err = uuid.Parse(req.DoctorID); err != nil {
			return nil, ErrInvalidDoctorID
		}
		if updated.DoctorID != current.DoctorID {
			updated.Doctor = nil
		}
	}
	if req.StartTime != "" {
		if updated.StartTime, err = u.parseStartTime(req.StartTime); err != nil {
			return nil, err
		}
	}

	moved := updated.DoctorID != current.DoctorID || !updated.StartTime.Equal(current.StartTime)

	// a cancelled or no-show appointment is not brought back by moving it
	if moved && current.Status.IsTerminal() {
		return nil, entity.ErrInvalidTransition
	}

	if updated.Status == entity.AppointmentStatusCancelled && current.Status != entity.AppointmentStatusCancelled {
		if !current.CanCancelAt(u.now()) {
			return nil, ErrCancellationWindowExpired
		}
	}

	if !moved && updated.Status == current.Status {
		return converter.AppointmentToResponse(current), nil
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if moved && updated.Status.OccupiesSlot() {
			available, err := u.availability.IsAvailable(ctx, tx, updated.DoctorID, updated.StartTime, updated.ID)
			if err != nil {
				return err
			}
			if !available {
				return ErrSlotUnavailable
			}
		}

		rows, err := u.appointmentRepo.Reschedule(ctx, tx, &updated, current.Status)
		if err != nil {
			if database.IsUniqueViolation(err, database.AppointmentSlotIndex) {
				return ErrSlotUnavailable
			}
			u.log.Warnf("Failed to update appointment %s: %+v", appointmentID, err)
			return apperror.Internal(err)
		}
		if rows == 0 {
			return u.classifyStaleWrite(ctx, tx, appointmentID, ErrAppointmentImmutable)
		}

		u.auditService.Record(ctx, tx, claims.UserID, entity.AuditActionAppointmentUpdate, &updated.ID,
			converter.AppointmentToResponse(current), converter.AppointmentToResponse(&updated))
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.slotCache.InvalidateDay(ctx, current.DoctorID, u.dayOf(current.StartTime))
	if moved {
		u.slotCache.InvalidateDay(ctx, updated.DoctorID, u.dayOf(updated.StartTime))
	}

	u.log.Infof("Appointment updated: id=%s status=%s start=%s", updated.ID, updated.Status, updated.StartTime.Format(time.RFC3339))
	return converter.AppointmentToResponse(&updated), nil
}

// CancelAppointment soft-cancels: the row stays, its status becomes cancelled
// and the slot is released.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	if err := u.guard.Authorize(claims, entity.RolePatient); err != nil {
		return nil, err
	}

	appointment, err := u.findAppointment(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		return nil, err
	}

	if _, err := u.guard.AuthorizeOwner(ctx, claims, appointment); err != nil {
		return nil, err
	}

	if !appointment.CanCancelAt(u.now()) {
		return nil, ErrCancellationWindowExpired
	}

	previous := appointment.Status
	if err := appointment.TransitionTo(entity.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	if err := u.writeStatus(ctx, claims, appointment, previous, entity.AuditActionAppointmentCancel); err != nil {
		return nil, err
	}

	u.log.Infof("Appointment cancelled: id=%s", appointment.ID)
	return converter.AppointmentToResponse(appointment), nil
}

// ChangeStatus records the outcome of a visit. Any doctor may call it.
func (u *appointmentUsecase) ChangeStatus(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID, req *dto.ChangeStatusRequest) (*dto.AppointmentResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleDoctor); err != nil {
		return nil, err
	}

	next, err := entity.ParseAppointmentStatus(req.Status)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findAppointment(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		return nil, err
	}

	previous := appointment.Status
	if err := appointment.TransitionTo(next); err != nil {
		return nil, err
	}

	if err := u.writeStatus(ctx, claims, appointment, previous, entity.AuditActionAppointmentStatus); err != nil {
		return nil, err
	}

	u.log.Infof("Appointment status changed: id=%s %s -> %s", appointment.ID, previous, next)
	return converter.AppointmentToResponse(appointment), nil
}

// ListForDoctor returns the calling doctor's appointments on one clinic day,
// ordered by start time.
func (u *appointmentUsecase) ListForDoctor(ctx context.Context, claims *entity.Claims, req *dto.DoctorAppointmentsRequest) (*dto.AppointmentListResponse, error) {
	if err := u.guard.Authorize(claims, entity.RoleDoctor); err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(entity.DateLayout, req.Date, u.location)
	if err != nil {
		return nil, ErrInvalidDate
	}

	appointments, err := u.appointmentRepo.FindForDoctorDay(ctx, u.tx.DB(ctx), entity.DoctorDayFilter{
		DoctorID:    claims.UserID,
		From:        day,
		To:          day.AddDate(0, 0, 1),
		PatientName: strings.TrimSpace(req.PatientName),
	})
	if err != nil {
		u.log.Warnf("Failed to list appointments of doctor %s: %+v", claims.UserID, err)
		return nil, apperror.Internal(err)
	}

	return converter.AppointmentsToListResponse(appointments), nil
}

// ListForPatient returns the caller's own appointments. Condition "past"
// selects completed visits, "future" scheduled ones.
func (u *appointmentUsecase) ListForPatient(ctx context.Context, claims *entity.Claims, req *dto.PatientAppointmentsRequest) (*dto.AppointmentListResponse, error) {
	if err := u.guard.Authorize(claims, entity.RolePatient); err != nil {
		return nil, err
	}

	patient, err := u.guard.ResolvePatient(ctx, claims)
	if err != nil {
		return nil, err
	}

	filter := entity.PatientAppointmentFilter{
		PatientID:  patient.UserID,
		DoctorName: strings.TrimSpace(req.DoctorName),
	}
	switch strings.ToLower(strings.TrimSpace(req.Condition)) {
	case "":
	case "past":
		filter.Status = entity.AppointmentStatusCompleted
	case "future":
		filter.Status = entity.AppointmentStatusScheduled
	default:
		return nil, ErrInvalidCondition
	}

	appointments, err := u.appointmentRepo.FindForPatient(ctx, u.tx.DB(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments of patient %s: %+v", patient.UserID, err)
		return nil, apperror.Internal(err)
	}

	return converter.AppointmentsToListResponse(appointments), nil
}

// GetAppointment is visible to the owning patient, the appointment's doctor
// and admins.
func (u *appointmentUsecase) GetAppointment(ctx context.Context, claims *entity.Claims, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	if !claims.Valid() {
		return nil, ErrUnauthorized
	}

	appointment, err := u.findAppointment(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		return nil, err
	}

	switch claims.Role {
	case entity.RoleAdmin:
	case entity.RoleDoctor:
		if appointment.DoctorID != claims.UserID {
			return nil, ErrUnauthorized
		}
	case entity.RolePatient:
		if _, err := u.guard.AuthorizeOwner(ctx, claims, appointment); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnauthorized
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) findAppointment(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, apperror.Internal(err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// writeStatus persists appointment.Status only if the row still has
// previous, then audits and invalidates the doctor-day.
func (u *appointmentUsecase) writeStatus(ctx context.Context, claims *entity.Claims, appointment *entity.Appointment, previous entity.AppointmentStatus, action string) error {
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		rows, err := u.appointmentRepo.UpdateStatus(ctx, tx, appointment.ID, previous, appointment.Status)
		if err != nil {
			u.log.Warnf("Failed to update status of appointment %s: %+v", appointment.ID, err)
			return apperror.Internal(err)
		}
		if rows == 0 {
			return u.classifyStaleWrite(ctx, tx, appointment.ID, entity.ErrInvalidTransition)
		}

		u.auditService.Record(ctx, tx, claims.UserID, action, &appointment.ID,
			map[string]string{"status": string(previous)}, map[string]string{"status": string(appointment.Status)})
		return nil
	})
	if err != nil {
		return err
	}

	u.slotCache.InvalidateDay(ctx, appointment.DoctorID, u.dayOf(appointment.StartTime))
	return nil
}

// classifyStaleWrite explains why a conditional write matched no row: the
// appointment is gone, or another writer moved its status first.
func (u *appointmentUsecase) classifyStaleWrite(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, completedErr error) error {
	latest, err := u.findAppointment(ctx, db, appointmentID)
	if err != nil {
		return err
	}
	if latest.Status == entity.AppointmentStatusCompleted {
		return completedErr
	}
	return entity.ErrInvalidTransition
}

// parseStartTime accepts RFC3339 and requires a time strictly after now.
func (u *appointmentUsecase) parseStartTime(value string) (time.Time, error) {
	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidStartTime
	}
	startTime = startTime.UTC().Truncate(time.Microsecond)
	if !startTime.After(u.now()) {
		return time.Time{}, ErrStartTimeInPast
	}
	return startTime, nil
}

func (u *appointmentUsecase) dayOf(t time.Time) string {
	return t.In(u.location).Format(entity.DateLayout)
}
