package validation

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNameTooShort    = errors.New("name must be at least 2 characters")
	ErrNameRequired    = errors.New("name is required")
	ErrBirthDateFuture = errors.New("birth date cannot be in the future")
	ErrBirthDateFormat = errors.New("birth date must be in YYYY-MM-DD format")
	ErrUsernameInvalid = errors.New("username must be 3-50 characters")
	ErrPasswordTooWeak = errors.New("password must be at least 6 characters")
)

// ValidateChildName checks a child's display name.
func ValidateChildName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	if len([]rune(trimmed)) < 2 {
		return ErrNameTooShort
	}
	return nil
}

// ParseBirthDate parses the date input from the child forms and rejects
// future dates.
func ParseBirthDate(value string, now time.Time) (time.Time, error) {
	birthDate, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrBirthDateFormat
	}
	if birthDate.After(now) {
		return time.Time{}, ErrBirthDateFuture
	}
	return birthDate, nil
}

// ValidateUsername checks a staff profile username.
func ValidateUsername(username string) error {
	length := len([]rune(strings.TrimSpace(username)))
	if length < 3 || length > 50 {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidatePassword checks a new profile password. Empty means "keep the
// current one" and is validated by the caller.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrPasswordTooWeak
	}
	return nil
}
