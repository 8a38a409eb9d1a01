package repository

import (
	"context"
	"errors"
	"time"

	"clinic-scheduling/internal/domain/entity"
	domainRepo "clinic-scheduling/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return db.WithContext(ctx).Omit("Doctor", "Patient").Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Preload("Doctor.User").Preload("Patient.User").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) ExistsOccupying(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, startTime time.Time, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("doctor_id = ? AND start_time = ? AND status IN ?", doctorID, startTime, entity.OccupyingStatuses())
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *appointmentRepository) FindOccupyingBetween(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND start_time >= ? AND start_time < ? AND status IN ?", doctorID, from, to, entity.OccupyingStatuses()).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindForDoctorDay(ctx context.Context, db *gorm.DB, filter entity.DoctorDayFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.WithContext(ctx).
		Where("appointments.doctor_id = ? AND appointments.start_time >= ? AND appointments.start_time < ?", filter.DoctorID, filter.From, filter.To)

	if filter.PatientName != "" {
		query = query.
			Joins("JOIN users patient_users ON patient_users.id = appointments.patient_id").
			Where("patient_users.full_name ILIKE ?", "%"+filter.PatientName+"%")
	}

	err := query.
		Preload("Patient.User").
		Order("appointments.start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindForPatient(ctx context.Context, db *gorm.DB, filter entity.PatientAppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.WithContext(ctx).Where("appointments.patient_id = ?", filter.PatientID)

	if filter.Status != "" {
		query = query.Where("appointments.status = ?", filter.Status)
	}
	if filter.DoctorName != "" {
		query = query.
			Joins("JOIN users doctor_users ON doctor_users.id = appointments.doctor_id").
			Where("doctor_users.full_name ILIKE ?", "%"+filter.DoctorName+"%")
	}

	err := query.
		Preload("Doctor.User").
		Order("appointments.start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateStatus is a compare-and-set on status. Returns affected rows:
// 1 = written, 0 = the row is gone or its status changed since it was read.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) Reschedule(ctx context.Context, db *gorm.DB, appointment *entity.Appointment, from entity.AppointmentStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, from).
		Updates(map[string]interface{}{
			"doctor_id":  appointment.DoctorID,
			"start_time": appointment.StartTime,
			"status":     appointment.Status,
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) CancelScheduledForDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("doctor_id = ? AND status = ? AND start_time >= ?", doctorID, entity.AppointmentStatusScheduled, from).
		Update("status", entity.AppointmentStatusCancelled)
	return result.RowsAffected, result.Error
}
