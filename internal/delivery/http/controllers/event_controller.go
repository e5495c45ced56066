package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"
)

// EventRequest is the request body for POST /events and the event_base of POST /events/series.
type EventRequest struct {
	Name               string               `json:"name"`
	Description        *string              `json:"description"`
	StartTime          *time.Time           `json:"start_time"`
	EndTime            *time.Time           `json:"end_time"`
	Location           *string              `json:"location"`
	Latitude           *float64             `json:"latitude"`
	Longitude          *float64             `json:"longitude"`
	Radius             *int                 `json:"radius"`
	MaxParticipants    *int                 `json:"max_participants"`
	EventType          string               `json:"event_type"`
	LocationValidation bool                 `json:"location_validation"`
	RequireCheckout    bool                 `json:"require_checkout"`
	CheckoutMode       *domain.CheckoutMode `json:"checkout_mode"`
	CheckoutDuration   *int                 `json:"checkout_duration"`
	Visibility         string               `json:"visibility"`
	TemplateIDs        []string             `json:"template_ids"`
}

func (e EventRequest) validateFields() []string {
	var errs []string
	if e.Name == "" {
		errs = append(errs, "name is required")
	}
	errs = append(errs, validLatLng(e.Latitude, e.Longitude)...)
	if e.Radius != nil && *e.Radius < 0 {
		errs = append(errs, "radius must not be negative")
	}
	if e.MaxParticipants != nil && *e.MaxParticipants < 1 {
		errs = append(errs, "max_participants must be at least 1")
	}
	if e.CheckoutDuration != nil && *e.CheckoutDuration < 0 {
		errs = append(errs, "checkout_duration must not be negative")
	}
	return errs
}

// Validate implements Validator. Start and end times are required and must be ordered.
func (e EventRequest) Validate() []string {
	errs := e.validateFields()
	if e.StartTime == nil || e.EndTime == nil {
		errs = append(errs, "start_time and end_time are required")
	} else if !e.EndTime.After(*e.StartTime) {
		errs = append(errs, "end_time must be after start_time")
	}
	return errs
}

func (e EventRequest) toEvent() *domain.Event {
	event := &domain.Event{
		Name:               e.Name,
		Description:        e.Description,
		Location:           e.Location,
		Latitude:           e.Latitude,
		Longitude:          e.Longitude,
		MaxParticipants:    e.MaxParticipants,
		EventType:          e.EventType,
		LocationValidation: e.LocationValidation,
		RequireCheckout:    e.RequireCheckout,
		CheckoutDuration:   e.CheckoutDuration,
		Visibility:         e.Visibility,
		TemplateIDs:        e.TemplateIDs,
	}
	if e.StartTime != nil {
		event.StartTime = *e.StartTime
	}
	if e.EndTime != nil {
		event.EndTime = *e.EndTime
	}
	if e.Radius != nil {
		event.Radius = *e.Radius
	}
	if e.CheckoutMode != nil {
		event.CheckoutMode = *e.CheckoutMode
	}
	return event
}

// EventSuccessResponse is the success response envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for an unpaginated event list.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the caller and generates its QR code. Radius defaults to 100 meters, visibility to public and checkout_mode to none.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), principal, req.toEvent())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// CreateSeriesRequest is the request body for POST /events/series.
// Dates accept YYYY-MM-DD or RFC 3339; days_of_week uses 0 for Monday through 6 for Sunday.
type CreateSeriesRequest struct {
	EventBase      EventRequest `json:"event_base"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date"`
	DaysOfWeek     []int        `json:"days_of_week"`
	StartTimeLocal string       `json:"start_time_local"`
	EndTimeLocal   string       `json:"end_time_local"`
}

// Validate implements Validator. Range, weekday and time-of-day rules are enforced by the service.
func (s CreateSeriesRequest) Validate() []string {
	errs := s.EventBase.validateFields()
	if _, err := parseDate(s.StartDate); err != nil {
		errs = append(errs, "start_date must be YYYY-MM-DD or RFC 3339")
	}
	if _, err := parseDate(s.EndDate); err != nil {
		errs = append(errs, "end_date must be YYYY-MM-DD or RFC 3339")
	}
	return errs
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// CreateSeries godoc
// @Summary Create a recurring event series
// @Description Creates one event per matching weekday in the inclusive date range, all sharing a new series_id. All events are created or none.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param series body CreateSeriesRequest true "Series definition"
// @Success 201 {object} controllers.EventListSuccessResponse "data contains the created events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, invalid_range, invalid_time_format, empty_result"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/series [post]
func (c *EventController) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req CreateSeriesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	start, _ := parseDate(req.StartDate)
	end, _ := parseDate(req.EndDate)
	events, err := c.Service.CreateSeries(r.Context(), principal, domain.SeriesRequest{
		Template:       req.EventBase.toEvent(),
		StartDate:      start,
		EndDate:        end,
		Weekdays:       req.DaysOfWeek,
		StartTimeLocal: req.StartTimeLocal,
		EndTimeLocal:   req.EndTimeLocal,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, events)
}

// ListEventsResponse is the paginated list of events with check-in counts.
type ListEventsResponse struct {
	Items      []*domain.EventWithCount `json:"items"`
	Pagination helpers.PaginationMeta   `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListEvents godoc
// @Summary List managed events
// @Description System admins see every event; other administrators see the events they created. Sorted by start_time descending.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), principal, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.EventWithCount{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Pagination: meta})
}

// ListPublicEvents godoc
// @Summary List public events
// @Description Public events sorted by start_time descending. No authentication.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/public [get]
func (c *EventController) ListPublicEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListPublicEvents(r.Context(), helpers.ParsePagination(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns a single event. No authentication; attendees load it after scanning the QR code.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Name               *string              `json:"name"`
	Description        *string              `json:"description"`
	StartTime          *time.Time           `json:"start_time"`
	EndTime            *time.Time           `json:"end_time"`
	Location           *string              `json:"location"`
	Latitude           *float64             `json:"latitude"`
	Longitude          *float64             `json:"longitude"`
	Radius             *int                 `json:"radius"`
	MaxParticipants    *int                 `json:"max_participants"`
	EventType          *string              `json:"event_type"`
	LocationValidation *bool                `json:"location_validation"`
	RequireCheckout    *bool                `json:"require_checkout"`
	CheckoutMode       *domain.CheckoutMode `json:"checkout_mode"`
	CheckoutDuration   *int                 `json:"checkout_duration"`
	Visibility         *string              `json:"visibility"`
	TemplateIDs        *[]string            `json:"template_ids"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Name != nil && *u.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	errs = append(errs, validLatLng(u.Latitude, u.Longitude)...)
	if u.MaxParticipants != nil && *u.MaxParticipants < 1 {
		errs = append(errs, "max_participants must be at least 1")
	}
	return errs
}

func (u UpdateEventRequest) toPatch() domain.EventPatch {
	return domain.EventPatch{
		Name:               u.Name,
		Description:        u.Description,
		StartTime:          u.StartTime,
		EndTime:            u.EndTime,
		Location:           u.Location,
		Latitude:           u.Latitude,
		Longitude:          u.Longitude,
		Radius:             u.Radius,
		MaxParticipants:    u.MaxParticipants,
		EventType:          u.EventType,
		LocationValidation: u.LocationValidation,
		RequireCheckout:    u.RequireCheckout,
		CheckoutMode:       u.CheckoutMode,
		CheckoutDuration:   u.CheckoutDuration,
		Visibility:         u.Visibility,
		TemplateIDs:        u.TemplateIDs,
	}
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially updates an event. Only the creator or a system admin may update.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), principal, eventID, req.toPatch())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes an event and its attendance records. Only the creator or a system admin may delete.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventStatsSuccessResponse is the success response envelope for GET /events/{eventID}/stats (200).
type EventStatsSuccessResponse struct {
	Data  *domain.EventStats `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// GetStats godoc
// @Summary Get event attendance statistics
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventStatsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/stats [get]
func (c *EventController) GetStats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.GetStats(r.Context(), principal, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// CheckinListResponse is the body of GET /events/{eventID}/checkins.
type CheckinListResponse struct {
	Checkins []*domain.AttendanceWithAttendee `json:"checkins"`
}

// CheckinListSuccessResponse is the success response envelope for GET /events/{eventID}/checkins (200).
type CheckinListSuccessResponse struct {
	Data  CheckinListResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ListCheckins godoc
// @Summary List an event's attendance records
// @Description Attendance records with attendee name, phone, company and department, ordered by check-in time.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CheckinListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/checkins [get]
func (c *EventController) ListCheckins(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	records, err := c.Service.ListCheckins(r.Context(), principal, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if records == nil {
		records = []*domain.AttendanceWithAttendee{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CheckinListResponse{Checkins: records})
}

// ExportResponse is the body of GET /events/{eventID}/export.
type ExportResponse struct {
	URL    string              `json:"url"`
	Format domain.ExportFormat `json:"format"`
}

// ExportSuccessResponse is the success response envelope for GET /events/{eventID}/export (200).
type ExportSuccessResponse struct {
	Data  ExportResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ExportCheckins godoc
// @Summary Export an event's attendance records
// @Description Writes the attendance list as csv or xlsx to file storage and returns its URL.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {object} controllers.ExportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/export [get]
func (c *EventController) ExportCheckins(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	format := domain.ExportFormat(r.URL.Query().Get("format"))
	switch format {
	case "":
		format = domain.ExportCSV
	case "excel":
		format = domain.ExportXLSX
	}
	url, err := c.Service.ExportCheckins(r.Context(), principal, eventID, format)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ExportResponse{URL: url, Format: format})
}
