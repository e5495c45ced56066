package controllers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"

	"github.com/google/uuid"
)

type AttendeeController struct {
	Logger      *slog.Logger
	Service     domain.AttendeeService
	FrontendURL string
}

func NewAttendeeController(logger *slog.Logger, svc domain.AttendeeService, frontendURL string) *AttendeeController {
	return &AttendeeController{
		Logger:      logger,
		Service:     svc,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// LineLogin godoc
// @Summary Start LINE Login
// @Description Redirects to the LINE authorize page. The event id is carried through the round trip as the OAuth state.
// @Tags attendees
// @Param event_id query string true "Event ID (UUID)"
// @Success 302 "Redirect to LINE"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /auth/line/login [get]
func (c *AttendeeController) LineLogin(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if uuid.Validate(eventID) != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "event_id must be a UUID")
		return
	}
	http.Redirect(w, r, c.Service.LineLoginURL(eventID), http.StatusFound)
}

// LineCallback godoc
// @Summary LINE Login callback
// @Description Exchanges the authorization code. Registered attendees are redirected to the event page with a token; new LINE users are redirected to registration with a short-lived registration token.
// @Tags attendees
// @Param code query string true "Authorization code"
// @Param state query string false "Event ID"
// @Success 302 "Redirect to the frontend"
// @Router /auth/line/callback [get]
func (c *AttendeeController) LineCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	result, err := c.Service.CompleteLineLogin(r.Context(), q.Get("code"))
	if err != nil {
		c.Logger.WarnContext(r.Context(), "line login failed", "path", r.URL.Path, "err", err)
		http.Redirect(w, r, c.FrontendURL+"/login?error=line_login_failed", http.StatusFound)
		return
	}
	if result.Attendee == nil {
		v := url.Values{}
		v.Set("registration_token", result.RegistrationToken)
		v.Set("eventId", state)
		http.Redirect(w, r, c.FrontendURL+"/register?"+v.Encode(), http.StatusFound)
		return
	}
	v := url.Values{}
	v.Set("token", result.Token)
	v.Set("sub", result.Attendee.ID)
	http.Redirect(w, r, c.FrontendURL+"/event/"+url.PathEscape(state)+"?"+v.Encode(), http.StatusFound)
}

// RegisterAttendeeRequest is the request body for POST /attendees.
type RegisterAttendeeRequest struct {
	Name        string         `json:"name"`
	Phone       string         `json:"phone"`
	Company     string         `json:"company"`
	Department  string         `json:"department"`
	ProfileData map[string]any `json:"profile_data"`
}

// Validate implements Validator. Phone format is checked by the service.
func (req RegisterAttendeeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	return errs
}

// RegisterAttendeeResponse is the body of POST /attendees.
type RegisterAttendeeResponse struct {
	Attendee *domain.Attendee `json:"attendee"`
	Token    string           `json:"token"`
}

// RegisterAttendeeSuccessResponse is the success response envelope for POST /attendees (201).
type RegisterAttendeeSuccessResponse struct {
	Data  RegisterAttendeeResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// Register godoc
// @Summary Register an attendee
// @Description Completes sign-up for a LINE identity. Requires the registration token issued by the LINE callback; returns the attendee and an attendee token.
// @Tags attendees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegisterAttendeeRequest true "Attendee profile"
// @Success 201 {object} controllers.RegisterAttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /attendees [post]
func (c *AttendeeController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterAttendeeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	attendee := &domain.Attendee{
		Name:        req.Name,
		Phone:       req.Phone,
		Company:     req.Company,
		Department:  req.Department,
		ProfileData: req.ProfileData,
	}
	created, token, err := c.Service.Register(r.Context(), principal.Subject, attendee)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RegisterAttendeeResponse{Attendee: created, Token: token})
}

// AttendeeSuccessResponse is the success response envelope for a single attendee.
type AttendeeSuccessResponse struct {
	Data  *domain.Attendee  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetMe godoc
// @Summary Get the current attendee
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AttendeeSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendees/me [get]
func (c *AttendeeController) GetMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	attendee, err := c.Service.GetByID(r.Context(), principal.Subject)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// Get godoc
// @Summary Get an attendee
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Success 200 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendees/{attendeeID} [get]
func (c *AttendeeController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "attendeeID")
	if !ok {
		return
	}
	attendee, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// UpdateAttendeeRequest is the request body for PATCH /attendees/me. profile_data keys are merged.
type UpdateAttendeeRequest struct {
	Name        *string        `json:"name"`
	Phone       *string        `json:"phone"`
	Company     *string        `json:"company"`
	Department  *string        `json:"department"`
	ProfileData map[string]any `json:"profile_data"`
}

// UpdateMe godoc
// @Summary Update the current attendee's profile
// @Tags attendees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateAttendeeRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendees/me [patch]
func (c *AttendeeController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateAttendeeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	attendee, err := c.Service.UpdateProfile(r.Context(), principal.Subject, domain.AttendeePatch{
		Name:        req.Name,
		Phone:       req.Phone,
		Company:     req.Company,
		Department:  req.Department,
		ProfileData: req.ProfileData,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// ListAttendeesResponse is the paginated list of attendees.
type ListAttendeesResponse struct {
	Items      []*domain.Attendee     `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListAttendeesSuccessResponse is the success response envelope for GET /attendees (200).
type ListAttendeesSuccessResponse struct {
	Data  ListAttendeesResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// List godoc
// @Summary List attendees
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListAttendeesSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /attendees [get]
func (c *AttendeeController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	attendees, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListAttendeesResponse{Items: attendees, Pagination: meta})
}
