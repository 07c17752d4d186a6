package validation

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNameRequired is returned when a required name is empty after trimming
	ErrNameRequired = errors.New("name is required")

	// ErrNameTooLong is returned when a name exceeds the maximum length
	ErrNameTooLong = errors.New("name must be at most 100 characters")

	// ErrCategoryNameLength is returned when a category name is outside 2-30 characters
	ErrCategoryNameLength = errors.New("category name must be between 2 and 30 characters")

	// ErrInvalidDateTime is returned for malformed naive datetime strings
	ErrInvalidDateTime = errors.New("datetime must be formatted as YYYY-MM-DDTHH:mm")

	// ErrInvalidDate is returned for malformed date strings
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)

const (
	// NaiveDateTimeLayout is the timezone-naive datetime format used for
	// location scheduling. Absence of a value means "unscheduled".
	NaiveDateTimeLayout = "2006-01-02T15:04"

	// DateLayout is the calendar-date format used for date filters
	DateLayout = "2006-01-02"
)

// ValidateTripName validates a trip (or location) display name
func ValidateTripName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// ValidateCategoryName validates a category name: 2-30 characters after trimming
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 30 {
		return ErrCategoryNameLength
	}
	return nil
}

// ValidateNaiveDateTime checks a "YYYY-MM-DDTHH:mm" string. The empty string
// is rejected here; callers treat it as a clear sentinel before validating.
func ValidateNaiveDateTime(value string) error {
	if _, err := time.Parse(NaiveDateTimeLayout, value); err != nil {
		return ErrInvalidDateTime
	}
	return nil
}

// ValidateDate checks a "YYYY-MM-DD" string
func ValidateDate(value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ErrInvalidDate
	}
	return nil
}
