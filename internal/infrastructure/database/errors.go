package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// AppointmentSlotIndex is the partial unique index guarding one active
// appointment per doctor and start time.
const AppointmentSlotIndex = "ux_appointments_doctor_start_active"

// IsUniqueViolation reports whether err is a Postgres unique violation whose
// constraint name contains constraint. An empty constraint matches any.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != uniqueViolation {
		return false
	}
	return strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraint))
}
