package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern      = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	datePattern       = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	weightPattern     = regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*(lbs|lb|kg|pounds|kilograms)?$`)
	heightUnitPattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*(cm|ft|feet|inch|inches)?$`)
	feetInchesPattern = regexp.MustCompile(`^\d{1,2}'\d{1,2}"?$`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
)

// Pure field rules. Malformed input is a normal validation failure, never an
// error condition.

func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePhone strips non-digits and accepts 10 to 15 remaining digits.
func ValidatePhone(s string) bool {
	digits := nonDigitPattern.ReplaceAllString(s, "")
	return len(digits) >= 10 && len(digits) <= 15
}

// ValidateDate accepts MM/DD/YYYY, calendar-valid and not in the future.
func ValidateDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	parsed, err := time.Parse("01/02/2006", s)
	if err != nil {
		return false
	}
	return !parsed.After(time.Now())
}

func ValidateWeight(s string) bool {
	return weightPattern.MatchString(strings.TrimSpace(s))
}

func ValidateHeight(s string) bool {
	trimmed := strings.TrimSpace(s)
	return heightUnitPattern.MatchString(trimmed) || feetInchesPattern.MatchString(trimmed)
}

// ProfileFields carries the free-text profile fields subject to format
// rules. Empty fields are skipped; only provided values are checked.
type ProfileFields struct {
	Email                 string
	Phone                 string
	DateOfBirth           string
	Weight                string
	Height                string
	EmergencyContactPhone string
	EmergencyContactEmail string
	DoctorPhone           string
}

// Result is the outcome of profile validation: pass/fail plus one message
// per failed field.
type Result struct {
	Valid  bool
	Errors []string
}

func ValidateProfile(fields ProfileFields) Result {
	var errs []string

	check := func(value string, ok func(string) bool, message string) {
		if value != "" && !ok(value) {
			errs = append(errs, message)
		}
	}

	check(fields.Email, ValidateEmail, "email must be a valid email address")
	check(fields.Phone, ValidatePhone, "phone must contain 10 to 15 digits")
	check(fields.DateOfBirth, ValidateDate, "date of birth must be a valid MM/DD/YYYY date in the past")
	check(fields.Weight, ValidateWeight, "weight must be a number with an optional unit (lbs, kg)")
	check(fields.Height, ValidateHeight, "height must be a number with an optional unit (cm, ft) or feet-inches notation")
	check(fields.EmergencyContactPhone, ValidatePhone, "emergency contact phone must contain 10 to 15 digits")
	check(fields.EmergencyContactEmail, ValidateEmail, "emergency contact email must be a valid email address")
	check(fields.DoctorPhone, ValidatePhone, "doctor phone must contain 10 to 15 digits")

	return Result{Valid: len(errs) == 0, Errors: errs}
}

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// Profile field rules, exposed as struct tags for the DTO layer.
	v.RegisterValidation("phone_number", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	})
	v.RegisterValidation("date_mmddyyyy", func(fl validator.FieldLevel) bool {
		return ValidateDate(fl.Field().String())
	})
	v.RegisterValidation("weight", func(fl validator.FieldLevel) bool {
		return ValidateWeight(fl.Field().String())
	})
	v.RegisterValidation("height", func(fl validator.FieldLevel) bool {
		return ValidateHeight(fl.Field().String())
	})

	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "phone_number":
				errors[field] = field + " must contain 10 to 15 digits"
			case "date_mmddyyyy":
				errors[field] = field + " must be a valid MM/DD/YYYY date in the past"
			case "weight":
				errors[field] = field + " must be a number with an optional unit"
			case "height":
				errors[field] = field + " must be a number with an optional unit or feet-inches notation"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
