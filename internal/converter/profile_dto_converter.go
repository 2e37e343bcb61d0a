package converter

import (
	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/dto"
	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
)

func SaveProfileRequestToEntity(req *dto.SaveProfileRequest) *entity.PersonalInfo {
	return &entity.PersonalInfo{
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		Email:                    req.Email,
		Phone:                    req.Phone,
		DateOfBirth:              req.DateOfBirth,
		Gender:                   req.Gender,
		Weight:                   req.Weight,
		Height:                   req.Height,
		BloodType:                req.BloodType,
		Allergies:                req.Allergies,
		MedicalConditions:        req.MedicalConditions,
		EmergencyContactName:     req.EmergencyContactName,
		EmergencyContactPhone:    req.EmergencyContactPhone,
		EmergencyContactRelation: req.EmergencyContactRelation,
		EmergencyContactEmail:    req.EmergencyContactEmail,
		DoctorName:               req.DoctorName,
		DoctorPhone:              req.DoctorPhone,
		DoctorSpecialty:          req.DoctorSpecialty,
		PreferredLanguage:        req.PreferredLanguage,
		TimeFormat:               req.TimeFormat,
		Units:                    req.Units,
	}
}

func PersonalInfoToResponse(info *entity.PersonalInfo) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		AccountID:                info.AccountID,
		FirstName:                info.FirstName,
		LastName:                 info.LastName,
		Email:                    info.Email,
		Phone:                    info.Phone,
		DateOfBirth:              info.DateOfBirth,
		Gender:                   info.Gender,
		Weight:                   info.Weight,
		Height:                   info.Height,
		BloodType:                info.BloodType,
		Allergies:                info.Allergies,
		MedicalConditions:        info.MedicalConditions,
		EmergencyContactName:     info.EmergencyContactName,
		EmergencyContactPhone:    info.EmergencyContactPhone,
		EmergencyContactRelation: info.EmergencyContactRelation,
		EmergencyContactEmail:    info.EmergencyContactEmail,
		DoctorName:               info.DoctorName,
		DoctorPhone:              info.DoctorPhone,
		DoctorSpecialty:          info.DoctorSpecialty,
		PreferredLanguage:        info.PreferredLanguage,
		TimeFormat:               info.TimeFormat,
		Units:                    info.Units,
		CreatedAt:                info.CreatedAt,
		UpdatedAt:                info.UpdatedAt,
	}
}
