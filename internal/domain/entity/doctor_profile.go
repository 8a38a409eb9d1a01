package entity

import "github.com/google/uuid"

// DoctorProfile represents doctor-specific profile data. SlotLabels is the
// ordered list of bookable daily slots, e.g. "09:00-10:00".
type DoctorProfile struct {
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialization string     `gorm:"type:varchar(100);not null;index" json:"specialization"`
	SlotLabels     SlotLabels `gorm:"type:text[];not null;default:'{}'" json:"slot_labels"`
	Biography      string     `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// Bookable reports whether the doctor can receive appointments.
func (d *DoctorProfile) Bookable() bool {
	return d != nil && d.User.Active()
}
