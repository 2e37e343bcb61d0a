package entity

import (
	"time"
)

// PersonalInfo is the device user's medical profile. The table is a
// singleton: at most one row exists, representing whoever is signed in on
// this device.
type PersonalInfo struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID string `gorm:"type:varchar(36);index" json:"account_id"`

	FirstName   string `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string `gorm:"type:varchar(100)" json:"last_name"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	Phone       string `gorm:"type:varchar(20)" json:"phone"`
	DateOfBirth string `gorm:"type:varchar(10)" json:"date_of_birth"` // MM/DD/YYYY

	Gender    string `gorm:"type:varchar(20)" json:"gender"`
	Weight    string `gorm:"type:varchar(20)" json:"weight"`
	Height    string `gorm:"type:varchar(20)" json:"height"`
	BloodType string `gorm:"type:varchar(5)" json:"blood_type"`

	Allergies         string `gorm:"type:text" json:"allergies"`
	MedicalConditions string `gorm:"type:text" json:"medical_conditions"`

	EmergencyContactName     string `gorm:"type:varchar(200)" json:"emergency_contact_name"`
	EmergencyContactPhone    string `gorm:"type:varchar(20)" json:"emergency_contact_phone"`
	EmergencyContactRelation string `gorm:"type:varchar(50)" json:"emergency_contact_relation,omitempty"`
	EmergencyContactEmail    string `gorm:"type:varchar(255)" json:"emergency_contact_email,omitempty"`

	DoctorName      string `gorm:"type:varchar(200)" json:"doctor_name"`
	DoctorPhone     string `gorm:"type:varchar(20)" json:"doctor_phone"`
	DoctorSpecialty string `gorm:"type:varchar(100)" json:"doctor_specialty"`

	PreferredLanguage string `gorm:"type:varchar(50);not null;default:English" json:"preferred_language"`
	TimeFormat        string `gorm:"type:varchar(2);not null;default:12" json:"time_format"`
	Units             string `gorm:"type:varchar(20);not null;default:Imperial" json:"units"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PersonalInfo) TableName() string {
	return "personal_info"
}

// Display preference defaults
const (
	DefaultLanguage   = "English"
	DefaultTimeFormat = "12"
	DefaultUnits      = "Imperial"
)

// BasicPersonalInfo is a legacy table carrying a subset of PersonalInfo.
// It is read once at store initialization to seed an empty personal_info
// table and is never written by current flows.
type BasicPersonalInfo struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100)" json:"last_name"`
	Email       string    `gorm:"type:varchar(255)" json:"email"`
	Phone       string    `gorm:"type:varchar(20)" json:"phone"`
	DateOfBirth string    `gorm:"type:varchar(10)" json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BasicPersonalInfo) TableName() string {
	return "basic_personal_info"
}
