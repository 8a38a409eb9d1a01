package usecase

import (
	"clinic-scheduling/pkg/apperror"
)

var (
	ErrUnauthorized = apperror.New(apperror.KindUnauthorized, "Unauthorized")

	ErrAppointmentNotFound = apperror.New(apperror.KindNotFound, "appointment not found")
	ErrDoctorNotFound      = apperror.New(apperror.KindNotFound, "doctor not found")

	ErrSlotUnavailable           = apperror.New(apperror.KindSlotUnavailable, "the requested time slot is not available")
	ErrAppointmentImmutable      = apperror.New(apperror.KindImmutable, "completed appointments cannot be modified")
	ErrCancellationWindowExpired = apperror.New(apperror.KindCancellationWindowExpired, "appointments can only be cancelled at least 2 hours before they start")

	ErrInvalidDate        = apperror.New(apperror.KindInvalidArgument, "invalid date format, use YYYY-MM-DD")
	ErrInvalidStartTime   = apperror.New(apperror.KindInvalidArgument, "invalid start_time, use RFC3339")
	ErrStartTimeInPast    = apperror.New(apperror.KindInvalidArgument, "start_time must be in the future")
	ErrInvalidDoctorID    = apperror.New(apperror.KindInvalidArgument, "invalid doctor_id")
	ErrInvalidPatientID   = apperror.New(apperror.KindInvalidArgument, "invalid patient_id")
	ErrInvalidCondition   = apperror.New(apperror.KindInvalidArgument, "condition must be past or future")
	ErrInvalidPeriod      = apperror.New(apperror.KindInvalidArgument, "period must be AM or PM")
	ErrEmailAlreadyExists = apperror.New(apperror.KindInvalidArgument, "email already exists")

	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid email or password")
)
