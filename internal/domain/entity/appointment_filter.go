package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorDayFilter selects a doctor's appointments in [From, To).
type DoctorDayFilter struct {
	DoctorID    uuid.UUID
	From        time.Time
	To          time.Time
	PatientName string // ILIKE, optional
}

// PatientAppointmentFilter selects a patient's own appointments.
type PatientAppointmentFilter struct {
	PatientID  uuid.UUID
	Status     AppointmentStatus // empty means any
	DoctorName string            // ILIKE, optional
}

// DoctorFilter is a domain-level filter for the doctor roster.
type DoctorFilter struct {
	Name      string // ILIKE
	Specialty string // ILIKE
}
