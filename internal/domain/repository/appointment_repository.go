package repository

import (
	"context"
	"time"

	"clinic-scheduling/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	// ExistsOccupying reports whether a slot-occupying appointment exists for
	// the doctor at exactly startTime. excludeID is ignored when uuid.Nil.
	ExistsOccupying(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, startTime time.Time, excludeID uuid.UUID) (bool, error)
	FindOccupyingBetween(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)
	FindForDoctorDay(ctx context.Context, db *gorm.DB, filter entity.DoctorDayFilter) ([]entity.Appointment, error)
	FindForPatient(ctx context.Context, db *gorm.DB, filter entity.PatientAppointmentFilter) ([]entity.Appointment, error)
	// UpdateStatus writes to only while the row still has status from.
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error)
	// Reschedule writes doctor, start time and status only while the row
	// still has status from.
	Reschedule(ctx context.Context, db *gorm.DB, appointment *entity.Appointment, from entity.AppointmentStatus) (int64, error)
	// CancelScheduledForDoctor cancels the doctor's scheduled appointments
	// starting at or after from.
	CancelScheduledForDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from time.Time) (int64, error)
}
