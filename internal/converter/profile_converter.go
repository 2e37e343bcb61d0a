package converter

import (
	"strings"
	"time"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	"github.com/praveen-kumars/pillremander-sub001/internal/remote"
)

// PersonalInfoToRemoteRow maps the local profile to the backend row shape.
// The backend keeps a single full_name column.
func PersonalInfoToRemoteRow(info *entity.PersonalInfo) remote.ProfileRow {
	return remote.ProfileRow{
		ID:          info.AccountID,
		Email:       info.Email,
		FullName:    FullName(info.FirstName, info.LastName),
		PhoneNumber: info.Phone,
		DateOfBirth: info.DateOfBirth,
		Age:         AgeFromDateOfBirth(info.DateOfBirth),
	}
}

// RemoteRowToPersonalInfo maps a backend row into a partial local profile.
// Only the fields the backend carries are populated.
func RemoteRowToPersonalInfo(row *remote.ProfileRow) *entity.PersonalInfo {
	first, last := SplitFullName(row.FullName)
	return &entity.PersonalInfo{
		AccountID:   row.ID,
		FirstName:   first,
		LastName:    last,
		Email:       row.Email,
		Phone:       row.PhoneNumber,
		DateOfBirth: row.DateOfBirth,
	}
}

// PersonalInfoToOnboardingUpdate enumerates the fields the onboarding
// completion write sends.
func PersonalInfoToOnboardingUpdate(info *entity.PersonalInfo) remote.OnboardingUpdate {
	return remote.OnboardingUpdate{
		FullName:    FullName(info.FirstName, info.LastName),
		PhoneNumber: info.Phone,
		DateOfBirth: info.DateOfBirth,
		Age:         AgeFromDateOfBirth(info.DateOfBirth),
	}
}

func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func SplitFullName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// AgeFromDateOfBirth derives age in whole years from an MM/DD/YYYY date.
// Returns nil when the date cannot be parsed.
func AgeFromDateOfBirth(dob string) *int {
	parsed, err := time.Parse("01/02/2006", dob)
	if err != nil {
		return nil
	}

	now := time.Now()
	age := now.Year() - parsed.Year()
	// Compare month and day directly; YearDay shifts after Feb 29 in leap
	// years and would misplace birthdays by one day.
	if now.Month() < parsed.Month() || (now.Month() == parsed.Month() && now.Day() < parsed.Day()) {
		age--
	}
	if age < 0 {
		return nil
	}
	return &age
}
