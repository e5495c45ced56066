package domain

import (
	"context"
	"time"
)

// Attendee is an end user authenticated through LINE Login.
// swagger:model Attendee
type Attendee struct {
	ID          string         `json:"id"`
	LineUserID  string         `json:"line_user_id"`
	Name        string         `json:"name"`
	Phone       string         `json:"phone"`
	Company     string         `json:"company"`
	Department  string         `json:"department"`
	ProfileData map[string]any `json:"profile_data"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewAttendee returns a new Attendee with the given fields. ID is typically set by the repository on create.
func NewAttendee(lineUserID, name, phone, company, department string, createdAt, updatedAt time.Time) *Attendee {
	return &Attendee{
		LineUserID:  lineUserID,
		Name:        name,
		Phone:       phone,
		Company:     company,
		Department:  department,
		ProfileData: map[string]any{},
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// MergeProfile copies every key of data into the attendee's profile data; later writes win.
// It reports whether anything was merged.
func (a *Attendee) MergeProfile(data map[string]any) bool {
	if len(data) == 0 {
		return false
	}
	if a.ProfileData == nil {
		a.ProfileData = make(map[string]any, len(data))
	}
	for k, v := range data {
		a.ProfileData[k] = v
	}
	return true
}

// AttendeePatch holds a partial profile update. Nil fields are left unchanged.
type AttendeePatch struct {
	Name        *string
	Phone       *string
	Company     *string
	Department  *string
	ProfileData map[string]any
}

// AttendeeRepository defines the interface for attendee storage.
type AttendeeRepository interface {
	Create(ctx context.Context, attendee *Attendee) error
	GetByID(ctx context.Context, id string) (*Attendee, error)
	GetByLineUserID(ctx context.Context, lineUserID string) (*Attendee, error)
	List(ctx context.Context, params PaginationParams) ([]*Attendee, int, error)
	Update(ctx context.Context, attendee *Attendee) error
}

// LineIdentity is the verified result of a LINE Login code exchange.
type LineIdentity struct {
	UserID      string
	DisplayName string
}

// LineAuthenticator exchanges LINE Login authorization codes for a verified identity.
type LineAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*LineIdentity, error)
}

// LineLoginResult tells the caller where to send the browser after a LINE callback.
// Exactly one of Token or RegistrationToken is set.
type LineLoginResult struct {
	Attendee          *Attendee
	Token             string
	RegistrationToken string
	LineUserID        string
}

// AttendeeService defines attendee-facing account operations.
type AttendeeService interface {
	LineLoginURL(eventID string) string
	CompleteLineLogin(ctx context.Context, code string) (*LineLoginResult, error)
	Register(ctx context.Context, lineUserID string, attendee *Attendee) (*Attendee, string, error)
	GetByID(ctx context.Context, id string) (*Attendee, error)
	UpdateProfile(ctx context.Context, id string, patch AttendeePatch) (*Attendee, error)
	List(ctx context.Context, params PaginationParams) ([]*Attendee, int, error)
}
