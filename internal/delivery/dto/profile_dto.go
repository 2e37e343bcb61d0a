package dto

import (
	"time"
)

// SaveProfileRequest carries every editable profile field. Format rules are
// enforced by the registered custom validations; empty optional fields are
// skipped.
type SaveProfileRequest struct {
	FirstName   string `json:"first_name" validate:"required,min=1,max=100"`
	LastName    string `json:"last_name" validate:"required,min=1,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,phone_number"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,date_mmddyyyy"`

	Gender    string `json:"gender" validate:"omitempty,max=20"`
	Weight    string `json:"weight" validate:"omitempty,weight"`
	Height    string `json:"height" validate:"omitempty,height"`
	BloodType string `json:"blood_type" validate:"omitempty,max=5"`

	Allergies         string `json:"allergies" validate:"omitempty"`
	MedicalConditions string `json:"medical_conditions" validate:"omitempty"`

	EmergencyContactName     string `json:"emergency_contact_name" validate:"omitempty,max=200"`
	EmergencyContactPhone    string `json:"emergency_contact_phone" validate:"omitempty,phone_number"`
	EmergencyContactRelation string `json:"emergency_contact_relation" validate:"omitempty,max=50"`
	EmergencyContactEmail    string `json:"emergency_contact_email" validate:"omitempty,email"`

	DoctorName      string `json:"doctor_name" validate:"omitempty,max=200"`
	DoctorPhone     string `json:"doctor_phone" validate:"omitempty,phone_number"`
	DoctorSpecialty string `json:"doctor_specialty" validate:"omitempty,max=100"`

	PreferredLanguage string `json:"preferred_language" validate:"omitempty,max=50"`
	TimeFormat        string `json:"time_format" validate:"omitempty,oneof=12 24"`
	Units             string `json:"units" validate:"omitempty,oneof=Imperial Metric"`
}

type ProfileResponse struct {
	AccountID   string `json:"account_id,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`

	Gender    string `json:"gender,omitempty"`
	Weight    string `json:"weight,omitempty"`
	Height    string `json:"height,omitempty"`
	BloodType string `json:"blood_type,omitempty"`

	Allergies         string `json:"allergies,omitempty"`
	MedicalConditions string `json:"medical_conditions,omitempty"`

	EmergencyContactName     string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone    string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelation string `json:"emergency_contact_relation,omitempty"`
	EmergencyContactEmail    string `json:"emergency_contact_email,omitempty"`

	DoctorName      string `json:"doctor_name,omitempty"`
	DoctorPhone     string `json:"doctor_phone,omitempty"`
	DoctorSpecialty string `json:"doctor_specialty,omitempty"`

	PreferredLanguage string `json:"preferred_language"`
	TimeFormat        string `json:"time_format"`
	Units             string `json:"units"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// SyncStatusResponse reports the per-tier outcome of a profile write.
type SyncStatusResponse struct {
	RemoteSynced bool     `json:"remote_synced"`
	FailedTiers  []string `json:"failed_tiers,omitempty"`
}

type OnboardingStatusResponse struct {
	State string `json:"state"`
}

type DeleteAccountResponse struct {
	Success     bool     `json:"success"`
	FailedSteps []string `json:"failed_steps,omitempty"`
}

type PreferenceRequest struct {
	Key   string `json:"key" validate:"required,max=100"`
	Value string `json:"value" validate:"required"`
}

type PreferenceResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
