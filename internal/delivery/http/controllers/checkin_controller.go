package controllers

import (
	"log/slog"
	"net/http"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"

	"github.com/google/uuid"
)

// SubmitAttendanceRequest is the request body for POST /checkins.
// Geolocation is "lat,lng"; the first submission checks in and the second checks out.
type SubmitAttendanceRequest struct {
	EventID     string         `json:"event_id"`
	Geolocation *string        `json:"geolocation"`
	Answers     map[string]any `json:"answers"`
	ProfileData map[string]any `json:"profile_data"`
}

// Validate implements Validator.
func (s SubmitAttendanceRequest) Validate() []string {
	var errs []string
	if s.EventID == "" {
		errs = append(errs, "event_id is required")
	} else if uuid.Validate(s.EventID) != nil {
		errs = append(errs, "event_id must be a UUID")
	}
	return errs
}

// AttendanceResultSuccessResponse is the success response envelope for POST /checkins (201).
type AttendanceResultSuccessResponse struct {
	Data  *domain.AttendanceResult `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ValidateAttendanceRequest is the request body for POST /checkins/validate.
type ValidateAttendanceRequest struct {
	EventID     string  `json:"event_id"`
	Geolocation *string `json:"geolocation"`
}

// Validate implements Validator.
func (v ValidateAttendanceRequest) Validate() []string {
	return SubmitAttendanceRequest{EventID: v.EventID}.Validate()
}

// EligibilitySuccessResponse is the success response envelope for POST /checkins/validate (200).
type EligibilitySuccessResponse struct {
	Data  *domain.Eligibility `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type CheckinController struct {
	Logger  *slog.Logger
	Service domain.AttendanceService
}

func NewCheckinController(logger *slog.Logger, svc domain.AttendanceService) *CheckinController {
	return &CheckinController{
		Logger:  logger,
		Service: svc,
	}
}

// Submit godoc
// @Summary Check in or check out
// @Description Records a check-in when the attendee has no record for the event, otherwise a checkout. Location and checkout rules are enforced.
// @Tags checkins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitAttendanceRequest true "Submission"
// @Success 201 {object} controllers.AttendanceResultSuccessResponse "data.action is checkin or checkout"
// @Failure 400 {object} helpers.APIResponse "error.code: invalid_location, location_not_configured, out_of_range, already_complete, checkout_not_required, too_early"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found, not_registered"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /checkins [post]
func (c *CheckinController) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitAttendanceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	result, err := c.Service.Submit(r.Context(), domain.AttendanceSubmission{
		AttendeeID:  principal.Subject,
		EventID:     req.EventID,
		Geolocation: req.Geolocation,
		Answers:     req.Answers,
		ProfileData: req.ProfileData,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// Validate godoc
// @Summary Check attendance eligibility
// @Description Reports what the attendee may currently do for the event without recording anything.
// @Tags checkins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ValidateAttendanceRequest true "Event and optional location"
// @Success 200 {object} controllers.EligibilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /checkins/validate [post]
func (c *CheckinController) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateAttendanceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	eligibility, err := c.Service.CheckEligibility(r.Context(), principal.Subject, req.EventID, req.Geolocation)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, eligibility)
}
