package entity

import (
	"strings"
	"time"

	"clinic-scheduling/pkg/apperror"

	"github.com/google/uuid"
)

// AppointmentDuration is the fixed length of every appointment.
const AppointmentDuration = time.Hour

// CancellationLeadTime is how long before the start a patient may still cancel.
const CancellationLeadTime = 2 * time.Hour

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

var (
	ErrInvalidTransition = apperror.New(apperror.KindInvalidTransition, "status transition is not allowed")
	ErrInvalidStatus     = apperror.New(apperror.KindInvalidArgument, "unknown appointment status")
)

// legacy numeric codes, still accepted from older clients
var statusCodes = map[string]AppointmentStatus{
	"0": AppointmentStatusScheduled,
	"1": AppointmentStatusCompleted,
	"2": AppointmentStatusCancelled,
	"3": AppointmentStatusNoShow,
}

// ParseAppointmentStatus accepts the status names and their numeric codes.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if st, ok := statusCodes[v]; ok {
		return st, nil
	}
	switch st := AppointmentStatus(v); st {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// IsTerminal reports whether no further transition is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s != AppointmentStatusScheduled
}

// CanTransitionTo reports whether s may move to next. Only Scheduled moves,
// and never to itself.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s != AppointmentStatusScheduled {
		return false
	}
	switch next {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

// OccupiesSlot reports whether an appointment in this state blocks its slot.
func (s AppointmentStatus) OccupiesSlot() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusCompleted
}

// OccupyingStatuses lists the states that block a slot.
func OccupyingStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusCompleted}
}

// Appointment represents a patient visit with a doctor
type Appointment struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	StartTime time.Time         `gorm:"type:timestamptz;not null;index" json:"start_time"`
	Status    AppointmentStatus `gorm:"type:appointment_status;not null;default:'scheduled';index" json:"status"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor  *DoctorProfile  `gorm:"foreignKey:DoctorID;references:UserID" json:"doctor,omitempty"`
	Patient *PatientProfile `gorm:"foreignKey:PatientID;references:UserID" json:"patient,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// EndTime is derived, never stored.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(AppointmentDuration)
}

// TransitionTo moves the appointment to next or returns ErrInvalidTransition.
func (a *Appointment) TransitionTo(next AppointmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	a.Status = next
	return nil
}

// CanCancelAt reports whether now is still inside the cancellation window.
// Exactly CancellationLeadTime before the start is allowed.
func (a *Appointment) CanCancelAt(now time.Time) bool {
	return !now.Add(CancellationLeadTime).After(a.StartTime)
}
