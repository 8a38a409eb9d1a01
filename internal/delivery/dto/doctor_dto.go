package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

type CreateDoctorRequest struct {
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=6"`
	FullName       string   `json:"full_name" validate:"required,min=2"`
	Specialization string   `json:"specialization" validate:"required"`
	Biography      string   `json:"biography" validate:"omitempty"`
	SlotLabels     []string `json:"slot_labels" validate:"omitempty,dive,required"`
}

type UpdateSlotsRequest struct {
	SlotLabels []string `json:"slot_labels" validate:"required,dive,required"`
}

// UpdateDoctorRequest leaves empty fields unchanged.
type UpdateDoctorRequest struct {
	FullName       string `json:"full_name" validate:"omitempty,min=2"`
	Specialization string `json:"specialization" validate:"omitempty,max=100"`
	Biography      string `json:"biography" validate:"omitempty"`
}

type ListDoctorsRequest struct {
	Name      string `json:"name" validate:"omitempty,max=255"`
	Specialty string `json:"specialty" validate:"omitempty,max=100"`
	Period    string `json:"period" validate:"omitempty,oneof=AM PM am pm"`
}

// Response DTOs

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Specialization string    `json:"specialization"`
	Biography      string    `json:"biography,omitempty"`
	SlotLabels     []string  `json:"slot_labels"`
	IsActive       *bool     `json:"is_active"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	FreeSlots []string  `json:"free_slots"`
}
