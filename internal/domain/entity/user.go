package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the login account behind every admin, doctor and patient.
// Doctors and patients hang their directory entry off the same id.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID    int       `gorm:"not null;index" json:"role_id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive  *bool     `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Role           Role            `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DoctorProfile  *DoctorProfile  `gorm:"foreignKey:UserID" json:"doctor_profile,omitempty"`
	PatientProfile *PatientProfile `gorm:"foreignKey:UserID" json:"patient_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// NewUser builds an active account with a fresh id. passwordHash must
// already be hashed.
func NewUser(roleID int, email, fullName, passwordHash string) *User {
	active := true
	return &User{
		ID:       uuid.New(),
		RoleID:   roleID,
		Email:    NormalizeEmail(email),
		Password: passwordHash,
		FullName: strings.TrimSpace(fullName),
		IsActive: &active,
	}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Active treats a missing flag as active, matching the column default.
func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// UserRole resolves the account's role id to the role carried in claims.
func (u *User) UserRole() (UserRole, bool) {
	return RoleFromID(u.RoleID)
}
