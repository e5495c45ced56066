package domain

import (
	"context"
	"time"
)

// AttendanceStatus is the state of an attendance record.
type AttendanceStatus string

const (
	StatusCheckedIn  AttendanceStatus = "checked_in"
	StatusCheckedOut AttendanceStatus = "checked_out"
)

// AttendanceRecord is the single per-(attendee, event) fact tracking check-in and optional checkout.
// CheckinTime never changes after creation; CheckoutTime is set at most once.
// swagger:model AttendanceRecord
type AttendanceRecord struct {
	ID           string           `json:"id"`
	AttendeeID   string           `json:"attendee_id"`
	EventID      string           `json:"event_id"`
	CheckinTime  time.Time        `json:"checkin_time"`
	CheckoutTime *time.Time       `json:"checkout_time"`
	Status       AttendanceStatus `json:"status"`
	Geolocation  *string          `json:"geolocation"`
	Answers      map[string]any   `json:"answers"`
	IsValid      bool             `json:"is_valid"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewCheckin returns a checked-in record stamped at now.
func NewCheckin(attendeeID, eventID string, geolocation *string, answers map[string]any, now time.Time) *AttendanceRecord {
	return &AttendanceRecord{
		AttendeeID:  attendeeID,
		EventID:     eventID,
		CheckinTime: now,
		Status:      StatusCheckedIn,
		Geolocation: geolocation,
		Answers:     answers,
		IsValid:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Completed reports whether the record has been checked out.
func (r *AttendanceRecord) Completed() bool {
	return r.CheckoutTime != nil
}

// AttendeeSummary is the contact subset of an attendee shown next to attendance records.
// swagger:model AttendeeSummary
type AttendeeSummary struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Department string `json:"department"`
}

// Summary returns the contact fields of a.
func (a *Attendee) Summary() AttendeeSummary {
	return AttendeeSummary{Name: a.Name, Phone: a.Phone, Company: a.Company, Department: a.Department}
}

// AttendanceWithAttendee bundles a record with the attendee it belongs to.
type AttendanceWithAttendee struct {
	*AttendanceRecord
	Attendee AttendeeSummary `json:"attendee"`
}

// AttendanceRepository defines storage for attendance records.
// The store enforces at most one record per (event, attendee); Create returns
// ErrDuplicateAttendance when that constraint is violated.
type AttendanceRepository interface {
	Create(ctx context.Context, record *AttendanceRecord) error
	GetByEventAndAttendee(ctx context.Context, eventID, attendeeID string) (*AttendanceRecord, error)
	MarkCheckedOut(ctx context.Context, record *AttendanceRecord) error
	ListByEventID(ctx context.Context, eventID string) ([]*AttendanceWithAttendee, error)
	CountByEventID(ctx context.Context, eventID string) (*EventStats, error)
}

// AttendanceAction is what a successful submission did.
type AttendanceAction string

const (
	ActionCheckin  AttendanceAction = "checkin"
	ActionCheckout AttendanceAction = "checkout"
)

// AttendanceSubmission is the input of a check-in or checkout attempt.
type AttendanceSubmission struct {
	AttendeeID  string
	EventID     string
	Geolocation *string
	Answers     map[string]any
	ProfileData map[string]any
}

// AttendanceResult is the outcome of a successful submission.
type AttendanceResult struct {
	Action AttendanceAction  `json:"action"`
	Record *AttendanceRecord `json:"record"`
}

// EligibilityStatus classifies what an attendee may currently do for an event.
type EligibilityStatus string

const (
	EligibilityNotRegistered       EligibilityStatus = "not_registered"
	EligibilityCheckin             EligibilityStatus = "eligible_checkin"
	EligibilityCheckout            EligibilityStatus = "eligible_checkout"
	EligibilityTooEarly            EligibilityStatus = "too_early"
	EligibilityAlreadyComplete     EligibilityStatus = "already_complete"
	EligibilityCheckoutNotRequired EligibilityStatus = "checkout_not_required"
	EligibilityLocationRejected    EligibilityStatus = "location_rejected"
)

// Eligibility is the read-only verdict for an attendance action.
// swagger:model Eligibility
type Eligibility struct {
	Status           EligibilityStatus `json:"status"`
	Valid            bool              `json:"valid"`
	Message          string            `json:"message"`
	RemainingMinutes int               `json:"remaining_minutes,omitempty"`
	Distance         *float64          `json:"distance,omitempty"`
	Radius           *int              `json:"radius,omitempty"`
	Attendee         *AttendeeSummary  `json:"attendee,omitempty"`
	Record           *AttendanceRecord `json:"record,omitempty"`
}

// AttendanceService defines the attendance operations. CheckEligibility never mutates
// and classifies exactly as Submit would at the same instant.
type AttendanceService interface {
	Submit(ctx context.Context, sub AttendanceSubmission) (*AttendanceResult, error)
	CheckEligibility(ctx context.Context, attendeeID, eventID string, geolocation *string) (*Eligibility, error)
}
