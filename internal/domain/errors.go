package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services and repositories.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("already exists")
)

// Attendance errors. Every one of them is caller-visible.
var (
	ErrNotRegistered         = errors.New("attendee not registered")
	ErrInvalidLocation       = errors.New("invalid or missing geolocation")
	ErrLocationNotConfigured = errors.New("event requires location validation but has no coordinates")
	ErrOutOfRange            = errors.New("outside of event radius")
	ErrAlreadyComplete       = errors.New("check-in and check-out already completed")
	ErrCheckoutNotRequired   = errors.New("event does not require checkout")
	ErrTooEarly              = errors.New("checkout not yet allowed")
	ErrDuplicateAttendance   = errors.New("attendance record already exists")
)

// Recurring series errors. All are raised before anything is persisted.
var (
	ErrInvalidRange      = errors.New("end date is before start date")
	ErrInvalidTimeFormat = errors.New("time of day must be HH:MM")
	ErrEmptyResult       = errors.New("no date in range matches the selected weekdays")
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrRegistrationClosed = errors.New("registration is closed")
)

// OutOfRangeError carries the computed distance and the configured radius, both in meters.
type OutOfRangeError struct {
	Distance float64
	Radius   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %dm / %dm", ErrOutOfRange.Error(), int(e.Distance), e.Radius)
}

// Detail returns the "distance / radius" summary, e.g. "150m / 100m".
func (e *OutOfRangeError) Detail() string {
	return fmt.Sprintf("%dm / %dm", int(e.Distance), e.Radius)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// TooEarlyError carries the whole minutes left before checkout opens.
type TooEarlyError struct {
	RemainingMinutes int
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("%s: %d minutes remaining", ErrTooEarly.Error(), e.RemainingMinutes)
}

func (e *TooEarlyError) Is(target error) bool { return target == ErrTooEarly }
