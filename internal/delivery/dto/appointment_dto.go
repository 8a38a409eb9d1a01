package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	PatientID string `json:"patient_id" validate:"omitempty,uuid"`
	StartTime string `json:"start_time" validate:"required,rfc3339"`
}

// UpdateAppointmentRequest leaves a field unchanged when it is empty.
type UpdateAppointmentRequest struct {
	DoctorID  string `json:"doctor_id" validate:"omitempty,uuid"`
	StartTime string `json:"start_time" validate:"omitempty,rfc3339"`
	Status    string `json:"status" validate:"omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type DoctorAppointmentsRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	PatientName string `json:"patient_name" validate:"omitempty,max=255"`
}

type PatientAppointmentsRequest struct {
	Condition  string `json:"condition" validate:"omitempty"` // past | future
	DoctorName string `json:"doctor_name" validate:"omitempty,max=255"`
}

// Response DTOs

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
