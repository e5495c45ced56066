package domain

import (
	"context"
	"time"
)

// CheckoutMode governs when a checkout action becomes legal.
type CheckoutMode string

const (
	CheckoutModeNone          CheckoutMode = "none"
	CheckoutModeAfterDuration CheckoutMode = "after_duration"
	CheckoutModeAtEndTime     CheckoutMode = "at_end_time"
)

// Valid reports whether m is a known checkout mode. The empty mode is treated as none.
func (m CheckoutMode) Valid() bool {
	switch m {
	case "", CheckoutModeNone, CheckoutModeAfterDuration, CheckoutModeAtEndTime:
		return true
	}
	return false
}

// Event visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// DefaultRadiusMeters is the check-in radius used when an event does not set one.
const DefaultRadiusMeters = 100

// Event represents an administrator-defined occasion with a time window,
// an optional location constraint and a checkout policy.
// swagger:model Event
type Event struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        *string      `json:"description"`
	StartTime          time.Time    `json:"start_time"`
	EndTime            time.Time    `json:"end_time"`
	Location           *string      `json:"location"`
	Latitude           *float64     `json:"latitude"`
	Longitude          *float64     `json:"longitude"`
	Radius             int          `json:"radius"`
	MaxParticipants    *int         `json:"max_participants"`
	EventType          string       `json:"event_type"`
	LocationValidation bool         `json:"location_validation"`
	RequireCheckout    bool         `json:"require_checkout"`
	CheckoutMode       CheckoutMode `json:"checkout_mode"`
	CheckoutDuration   *int         `json:"checkout_duration"`
	Visibility         string       `json:"visibility"`
	SeriesID           *string      `json:"series_id"`
	QRCodeURL          *string      `json:"qrcode_url"`
	TemplateIDs        []string     `json:"template_ids"`
	CreatedBy          string       `json:"created_by"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// HasCoordinates reports whether the event stores both latitude and longitude.
func (e *Event) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Clone returns a copy of e that shares no pointers or slices with it.
func (e *Event) Clone() *Event {
	c := *e
	c.Description = cloneString(e.Description)
	c.Location = cloneString(e.Location)
	c.SeriesID = cloneString(e.SeriesID)
	c.QRCodeURL = cloneString(e.QRCodeURL)
	c.Latitude = cloneFloat(e.Latitude)
	c.Longitude = cloneFloat(e.Longitude)
	c.MaxParticipants = cloneInt(e.MaxParticipants)
	c.CheckoutDuration = cloneInt(e.CheckoutDuration)
	if e.TemplateIDs != nil {
		c.TemplateIDs = append([]string(nil), e.TemplateIDs...)
	}
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// EventPatch holds a partial update. Nil fields are left unchanged.
type EventPatch struct {
	Name               *string
	Description        *string
	StartTime          *time.Time
	EndTime            *time.Time
	Location           *string
	Latitude           *float64
	Longitude          *float64
	Radius             *int
	MaxParticipants    *int
	EventType          *string
	LocationValidation *bool
	RequireCheckout    *bool
	CheckoutMode       *CheckoutMode
	CheckoutDuration   *int
	Visibility         *string
	TemplateIDs        *[]string
}

// Apply copies every non-nil field of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.Location != nil {
		e.Location = p.Location
	}
	if p.Latitude != nil {
		e.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		e.Longitude = p.Longitude
	}
	if p.Radius != nil {
		e.Radius = *p.Radius
	}
	if p.MaxParticipants != nil {
		e.MaxParticipants = p.MaxParticipants
	}
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	if p.LocationValidation != nil {
		e.LocationValidation = *p.LocationValidation
	}
	if p.RequireCheckout != nil {
		e.RequireCheckout = *p.RequireCheckout
	}
	if p.CheckoutMode != nil {
		e.CheckoutMode = *p.CheckoutMode
	}
	if p.CheckoutDuration != nil {
		e.CheckoutDuration = p.CheckoutDuration
	}
	if p.Visibility != nil {
		e.Visibility = *p.Visibility
	}
	if p.TemplateIDs != nil {
		e.TemplateIDs = *p.TemplateIDs
	}
}

// EventWithCount bundles an event with its number of attendance records.
type EventWithCount struct {
	*Event
	Checkins int `json:"checkins"`
}

// EventStats summarizes attendance for one event.
// swagger:model EventStats
type EventStats struct {
	Total      int `json:"total"`
	CheckedIn  int `json:"checked_in"`
	CheckedOut int `json:"checked_out"`
}

// EventFilter scopes list queries. An empty CreatedBy lists every event.
type EventFilter struct {
	CreatedBy string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*EventWithCount, int, error)
	ListPublic(ctx context.Context, params PaginationParams) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	SetQRCodeURL(ctx context.Context, eventID, url string) error
	Delete(ctx context.Context, id string) error
}

// SeriesRequest is the input to recurring event generation.
// Weekdays use Monday=0 ... Sunday=6.
type SeriesRequest struct {
	Template       *Event
	StartDate      time.Time
	EndDate        time.Time
	Weekdays       []int
	StartTimeLocal string
	EndTimeLocal   string
}

// EventService defines administrator operations on events.
type EventService interface {
	CreateEvent(ctx context.Context, principal Principal, event *Event) (*Event, error)
	CreateSeries(ctx context.Context, principal Principal, req SeriesRequest) ([]*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, principal Principal, params PaginationParams) ([]*EventWithCount, int, error)
	ListPublicEvents(ctx context.Context, params PaginationParams) ([]*Event, error)
	UpdateEvent(ctx context.Context, principal Principal, eventID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, principal Principal, eventID string) error
	GetStats(ctx context.Context, principal Principal, eventID string) (*EventStats, error)
	ListCheckins(ctx context.Context, principal Principal, eventID string) ([]*AttendanceWithAttendee, error)
	ExportCheckins(ctx context.Context, principal Principal, eventID string, format ExportFormat) (string, error)
}
