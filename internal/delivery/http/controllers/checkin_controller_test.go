package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckinController_Submit(t *testing.T) {
	body := `{"event_id":"` + testEventID + `","geolocation":"25.0330,121.5654","answers":{"q1":"yes"}}`
	tests := []struct {
		name           string
		body           string
		noPrincipal    bool
		fakeErr        error
		wantStatus     int
		wantCode       string
		wantBodySubstr string
	}{
		{name: "checkin", body: body, wantStatus: http.StatusCreated},
		{name: "no principal", body: body, noPrincipal: true, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "missing event id", body: `{}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "event_id is required"},
		{name: "event id not uuid", body: `{"event_id":"abc"}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "event_id must be a UUID"},
		{name: "out of range", body: body, fakeErr: &domain.OutOfRangeError{Distance: 150.4, Radius: 100}, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeOutOfRange, wantBodySubstr: "150m / 100m"},
		{name: "too early", body: body, fakeErr: &domain.TooEarlyError{RemainingMinutes: 12}, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeTooEarly, wantBodySubstr: "12 minutes"},
		{name: "already complete", body: body, fakeErr: domain.ErrAlreadyComplete, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeAlreadyComplete},
		{name: "checkout not required", body: body, fakeErr: domain.ErrCheckoutNotRequired, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeCheckoutNotRequired},
		{name: "invalid location", body: body, fakeErr: domain.ErrInvalidLocation, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeInvalidLocation},
		{name: "location not configured", body: body, fakeErr: domain.ErrLocationNotConfigured, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeLocationNotConfigured},
		{name: "not registered", body: body, fakeErr: domain.ErrNotRegistered, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotRegistered},
		{name: "concurrent duplicate", body: body, fakeErr: domain.ErrDuplicateAttendance, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAttendanceService{
				err:    tt.fakeErr,
				result: &domain.AttendanceResult{Action: domain.ActionCheckin, Record: &domain.AttendanceRecord{ID: "rec-1"}},
			}
			principal := &attendeePrincipal
			if tt.noPrincipal {
				principal = nil
			}
			rr := httptest.NewRecorder()

			NewCheckinController(testLogger, fake).Submit(rr, newRequest(http.MethodPost, "/checkins", tt.body, principal))

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus == http.StatusCreated {
				var result domain.AttendanceResult
				decodeEnvelope(t, rr, &result)
				assert.Equal(t, domain.ActionCheckin, result.Action)
				assert.Equal(t, "att-1", fake.lastSubmission.AttendeeID)
				assert.Equal(t, testEventID, fake.lastSubmission.EventID)
				require.NotNil(t, fake.lastSubmission.Geolocation)
				assert.Equal(t, "25.0330,121.5654", *fake.lastSubmission.Geolocation)
				assert.Equal(t, "yes", fake.lastSubmission.Answers["q1"])
				return
			}
			envelope := decodeEnvelope(t, rr, nil)
			require.NotNil(t, envelope.Error)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
			assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
		})
	}
}

func TestCheckinController_Validate(t *testing.T) {
	fake := &fakeAttendanceService{eligibility: &domain.Eligibility{
		Status:           domain.EligibilityTooEarly,
		Message:          "checkout opens in 5 minutes",
		RemainingMinutes: 5,
	}}
	rr := httptest.NewRecorder()
	body := `{"event_id":"` + testEventID + `"}`

	NewCheckinController(testLogger, fake).Validate(rr, newRequest(http.MethodPost, "/checkins/validate", body, &attendeePrincipal))

	require.Equal(t, http.StatusOK, rr.Code)
	var eligibility domain.Eligibility
	decodeEnvelope(t, rr, &eligibility)
	assert.Equal(t, domain.EligibilityTooEarly, eligibility.Status)
	assert.False(t, eligibility.Valid)
	assert.Equal(t, 5, eligibility.RemainingMinutes)
	assert.Equal(t, "att-1", fake.lastAttendeeID)
	assert.Nil(t, fake.lastGeolocation)
}

func TestCheckinController_Validate_EventNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	body := `{"event_id":"` + testEventID + `"}`

	NewCheckinController(testLogger, &fakeAttendanceService{err: domain.ErrNotFound}).Validate(rr, newRequest(http.MethodPost, "/checkins/validate", body, &attendeePrincipal))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
