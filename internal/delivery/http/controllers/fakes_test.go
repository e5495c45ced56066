package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/delivery/http/middleware"
	"checkinflow/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID = "7a0c1f8e-3b52-4d7e-9a61-2f4b8c9d0e11"
	testAdminID = "1d2e3f40-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

var (
	adminPrincipal    = domain.Principal{Subject: testAdminID, Role: domain.RoleAdmin}
	attendeePrincipal = domain.Principal{Subject: "att-1", Role: domain.RoleAttendee}
)

// newRequest builds a request with an optional JSON body and principal.
func newRequest(method, target, body string, principal *domain.Principal) *http.Request {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), *principal))
	}
	return req
}

// decodeEnvelope decodes the response envelope and, when dest is non-nil, its data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if dest != nil {
		require.Nil(t, envelope.Error, "success response must have error nil")
		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(dataBytes, dest))
	}
	return envelope
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err             error
	event           *domain.Event
	events          []*domain.Event
	eventsWithCount []*domain.EventWithCount
	total           int
	stats           *domain.EventStats
	checkins        []*domain.AttendanceWithAttendee
	exportURL       string

	lastPrincipal domain.Principal
	lastEventID   string
	lastEvent     *domain.Event
	lastSeries    domain.SeriesRequest
	lastPatch     domain.EventPatch
	lastParams    domain.PaginationParams
	lastFormat    domain.ExportFormat
}

func (f *fakeEventService) CreateEvent(ctx context.Context, principal domain.Principal, event *domain.Event) (*domain.Event, error) {
	f.lastPrincipal = principal
	f.lastEvent = event
	if f.err != nil {
		return nil, f.err
	}
	event.ID = testEventID
	event.CreatedBy = principal.Subject
	return event, nil
}

func (f *fakeEventService) CreateSeries(ctx context.Context, principal domain.Principal, req domain.SeriesRequest) ([]*domain.Event, error) {
	f.lastPrincipal = principal
	f.lastSeries = req
	return f.events, f.err
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	f.lastEventID = eventID
	return f.event, f.err
}

func (f *fakeEventService) ListEvents(ctx context.Context, principal domain.Principal, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	f.lastPrincipal = principal
	f.lastParams = params
	return f.eventsWithCount, f.total, f.err
}

func (f *fakeEventService) ListPublicEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, error) {
	f.lastParams = params
	return f.events, f.err
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, principal domain.Principal, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastPrincipal = principal
	f.lastEventID = eventID
	f.lastPatch = patch
	return f.event, f.err
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, principal domain.Principal, eventID string) error {
	f.lastPrincipal = principal
	f.lastEventID = eventID
	return f.err
}

func (f *fakeEventService) GetStats(ctx context.Context, principal domain.Principal, eventID string) (*domain.EventStats, error) {
	f.lastEventID = eventID
	return f.stats, f.err
}

func (f *fakeEventService) ListCheckins(ctx context.Context, principal domain.Principal, eventID string) ([]*domain.AttendanceWithAttendee, error) {
	f.lastEventID = eventID
	return f.checkins, f.err
}

func (f *fakeEventService) ExportCheckins(ctx context.Context, principal domain.Principal, eventID string, format domain.ExportFormat) (string, error) {
	f.lastEventID = eventID
	f.lastFormat = format
	return f.exportURL, f.err
}

// fakeAttendanceService implements domain.AttendanceService for handler tests.
type fakeAttendanceService struct {
	err         error
	result      *domain.AttendanceResult
	eligibility *domain.Eligibility

	lastSubmission  domain.AttendanceSubmission
	lastAttendeeID  string
	lastEventID     string
	lastGeolocation *string
}

func (f *fakeAttendanceService) Submit(ctx context.Context, sub domain.AttendanceSubmission) (*domain.AttendanceResult, error) {
	f.lastSubmission = sub
	return f.result, f.err
}

func (f *fakeAttendanceService) CheckEligibility(ctx context.Context, attendeeID, eventID string, geolocation *string) (*domain.Eligibility, error) {
	f.lastAttendeeID = attendeeID
	f.lastEventID = eventID
	f.lastGeolocation = geolocation
	return f.eligibility, f.err
}

// fakeAttendeeService implements domain.AttendeeService for handler tests.
type fakeAttendeeService struct {
	err         error
	loginResult *domain.LineLoginResult
	attendee    *domain.Attendee
	attendees   []*domain.Attendee
	total       int
	token       string

	lastLoginEventID string
	lastCode         string
	lastLineUserID   string
	lastAttendee     *domain.Attendee
	lastID           string
	lastPatch        domain.AttendeePatch
}

func (f *fakeAttendeeService) LineLoginURL(eventID string) string {
	f.lastLoginEventID = eventID
	return "https://access.line.me/oauth2/v2.1/authorize?state=" + eventID
}

func (f *fakeAttendeeService) CompleteLineLogin(ctx context.Context, code string) (*domain.LineLoginResult, error) {
	f.lastCode = code
	return f.loginResult, f.err
}

func (f *fakeAttendeeService) Register(ctx context.Context, lineUserID string, attendee *domain.Attendee) (*domain.Attendee, string, error) {
	f.lastLineUserID = lineUserID
	f.lastAttendee = attendee
	if f.err != nil {
		return nil, "", f.err
	}
	attendee.ID = "att-new"
	attendee.LineUserID = lineUserID
	return attendee, f.token, nil
}

func (f *fakeAttendeeService) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	f.lastID = id
	return f.attendee, f.err
}

func (f *fakeAttendeeService) UpdateProfile(ctx context.Context, id string, patch domain.AttendeePatch) (*domain.Attendee, error) {
	f.lastID = id
	f.lastPatch = patch
	return f.attendee, f.err
}

func (f *fakeAttendeeService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	return f.attendees, f.total, f.err
}

// fakeAdminService implements domain.AdminService for handler tests.
type fakeAdminService struct {
	err              error
	token            string
	admin            *domain.Admin
	admins           []*domain.Admin
	registrationOpen bool

	lastUsername  string
	lastPassword  string
	lastID        string
	lastOld       string
	lastNew       string
	lastRole      domain.Role
	lastActive    bool
	lastPrincipal domain.Principal
}

func (f *fakeAdminService) Login(ctx context.Context, username, password string) (string, *domain.Admin, error) {
	f.lastUsername = username
	f.lastPassword = password
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.admin, nil
}

func (f *fakeAdminService) Register(ctx context.Context, username, password string) (*domain.Admin, error) {
	f.lastUsername = username
	f.lastPassword = password
	return f.admin, f.err
}

func (f *fakeAdminService) RegistrationOpen() bool { return f.registrationOpen }

func (f *fakeAdminService) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	f.lastID = id
	return f.admin, f.err
}

func (f *fakeAdminService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	f.lastID = id
	f.lastOld = oldPassword
	f.lastNew = newPassword
	return f.err
}

func (f *fakeAdminService) List(ctx context.Context, principal domain.Principal) ([]*domain.Admin, error) {
	f.lastPrincipal = principal
	return f.admins, f.err
}

func (f *fakeAdminService) Create(ctx context.Context, principal domain.Principal, username, password string, role domain.Role) (*domain.Admin, error) {
	f.lastPrincipal = principal
	f.lastUsername = username
	f.lastPassword = password
	f.lastRole = role
	return f.admin, f.err
}

func (f *fakeAdminService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	f.lastPrincipal = principal
	f.lastID = id
	return f.err
}

func (f *fakeAdminService) SetActive(ctx context.Context, principal domain.Principal, id string, active bool) error {
	f.lastPrincipal = principal
	f.lastID = id
	f.lastActive = active
	return f.err
}

// fakeTemplateService implements domain.TemplateService for handler tests.
type fakeTemplateService struct {
	err       error
	template  *domain.RegistrationTemplate
	templates []*domain.RegistrationTemplate

	lastPrincipal domain.Principal
	lastID        string
	lastCreate    *domain.RegistrationTemplate
	lastPatch     domain.TemplatePatch
}

func (f *fakeTemplateService) List(ctx context.Context, principal domain.Principal) ([]*domain.RegistrationTemplate, error) {
	f.lastPrincipal = principal
	return f.templates, f.err
}

func (f *fakeTemplateService) Create(ctx context.Context, principal domain.Principal, t *domain.RegistrationTemplate) (*domain.RegistrationTemplate, error) {
	f.lastPrincipal = principal
	f.lastCreate = t
	if f.err != nil {
		return nil, f.err
	}
	t.ID = "tpl-new"
	return t, nil
}

func (f *fakeTemplateService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.RegistrationTemplate, error) {
	f.lastID = id
	return f.template, f.err
}

func (f *fakeTemplateService) Update(ctx context.Context, principal domain.Principal, id string, patch domain.TemplatePatch) (*domain.RegistrationTemplate, error) {
	f.lastID = id
	f.lastPatch = patch
	return f.template, f.err
}

func (f *fakeTemplateService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	f.lastPrincipal = principal
	f.lastID = id
	return f.err
}
