package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkinflow/internal/domain"
	"checkinflow/internal/metrics"

	"github.com/google/uuid"
)

const defaultEventType = "meeting"

// EventServiceConfig holds the collaborators and settings of the event service.
type EventServiceConfig struct {
	Tx             domain.Transactor
	EventRepo      domain.EventRepository
	AttendanceRepo domain.AttendanceRepository
	QR             domain.QRGenerator
	Storage        domain.FileStorage
	Exporter       domain.CheckinExporter
	FrontendURL    string
	SeriesLocation *time.Location
	Timeout        time.Duration
}

type eventService struct {
	tx             domain.Transactor
	eventRepo      domain.EventRepository
	attendanceRepo domain.AttendanceRepository
	qr             domain.QRGenerator
	storage        domain.FileStorage
	exporter       domain.CheckinExporter
	frontendURL    string
	loc            *time.Location
	contextTimeout time.Duration
	now            func() time.Time
	newID          func() string
}

func NewEventService(cfg EventServiceConfig) domain.EventService {
	loc := cfg.SeriesLocation
	if loc == nil {
		loc = time.UTC
	}
	return &eventService{
		tx:             cfg.Tx,
		eventRepo:      cfg.EventRepo,
		attendanceRepo: cfg.AttendanceRepo,
		qr:             cfg.QR,
		storage:        cfg.Storage,
		exporter:       cfg.Exporter,
		frontendURL:    strings.TrimSuffix(cfg.FrontendURL, "/"),
		loc:            loc,
		contextTimeout: cfg.Timeout,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// normalizeEvent fills defaults and checks the fields every stored event must satisfy.
func normalizeEvent(e *domain.Event) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", domain.ErrInvalidInput)
	}
	if e.Radius <= 0 {
		e.Radius = domain.DefaultRadiusMeters
	}
	if e.EventType == "" {
		e.EventType = defaultEventType
	}
	if e.Visibility == "" {
		e.Visibility = domain.VisibilityPublic
	}
	if e.Visibility != domain.VisibilityPublic && e.Visibility != domain.VisibilityPrivate {
		return fmt.Errorf("%w: visibility must be public or private", domain.ErrInvalidInput)
	}
	if !e.CheckoutMode.Valid() {
		return fmt.Errorf("%w: unknown checkout_mode %q", domain.ErrInvalidInput, e.CheckoutMode)
	}
	if e.CheckoutMode == "" {
		e.CheckoutMode = domain.CheckoutModeNone
	}
	if e.CheckoutDuration != nil && *e.CheckoutDuration < 0 {
		return fmt.Errorf("%w: checkout_duration must not be negative", domain.ErrInvalidInput)
	}
	if e.Latitude != nil && (*e.Latitude < -90 || *e.Latitude > 90) {
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrInvalidInput)
	}
	if e.Longitude != nil && (*e.Longitude < -180 || *e.Longitude > 180) {
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrInvalidInput)
	}
	if e.MaxParticipants != nil && *e.MaxParticipants < 0 {
		return fmt.Errorf("%w: max_participants must not be negative", domain.ErrInvalidInput)
	}
	if e.TemplateIDs == nil {
		e.TemplateIDs = []string{}
	}
	for _, id := range e.TemplateIDs {
		if uuid.Validate(id) != nil {
			return fmt.Errorf("%w: template id %q is not a UUID", domain.ErrInvalidInput, id)
		}
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, principal domain.Principal, event *domain.Event) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageEvents) {
		return nil, domain.ErrForbidden
	}
	if err := normalizeEvent(event); err != nil {
		return nil, err
	}
	now := s.now()
	event.CreatedBy = principal.Subject
	event.CreatedAt = now
	event.UpdatedAt = now

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachQRCode(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) CreateSeries(ctx context.Context, principal domain.Principal, req domain.SeriesRequest) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageEvents) {
		return nil, domain.ErrForbidden
	}
	if req.Template == nil {
		return nil, fmt.Errorf("%w: template is required", domain.ErrInvalidInput)
	}
	events, err := GenerateSeries(req, s.loc, s.newID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, e := range events {
		if err := normalizeEvent(e); err != nil {
			return nil, err
		}
		e.CreatedBy = principal.Subject
		e.CreatedAt = now
		e.UpdatedAt = now
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, e := range events {
			if err := s.eventRepo.Create(ctx, e); err != nil {
				return fmt.Errorf("create event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if err := s.attachQRCode(ctx, e); err != nil {
			return nil, err
		}
	}
	metrics.SeriesEventsCreated.Add(float64(len(events)))
	return events, nil
}

// attachQRCode renders and stores the QR code of e and records its URL.
// e must already be committed.
func (s *eventService) attachQRCode(ctx context.Context, e *domain.Event) error {
	png, err := s.qr.PNG(s.frontendURL + "/event/" + e.ID)
	if err != nil {
		return fmt.Errorf("generate qr code: %w", err)
	}
	url, err := s.storage.Put(ctx, fmt.Sprintf("qrcodes/event_%s.png", e.ID), "image/png", png)
	if err != nil {
		return fmt.Errorf("store qr code: %w", err)
	}
	if err := s.eventRepo.SetQRCodeURL(ctx, e.ID, url); err != nil {
		return fmt.Errorf("set qr code url: %w", err)
	}
	e.QRCodeURL = &url
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// getManaged loads an event and checks principal may manage it.
func (s *eventService) getManaged(ctx context.Context, principal domain.Principal, eventID string) (*domain.Event, error) {
	if !domain.Authorize(principal, domain.CapManageEvents) {
		return nil, domain.ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !domain.CanManage(principal, event.CreatedBy) {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, principal domain.Principal, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageEvents) {
		return nil, 0, domain.ErrForbidden
	}
	filter := domain.EventFilter{CreatedBy: principal.Subject}
	if domain.Authorize(principal, domain.CapSeeAllEvents) {
		filter.CreatedBy = ""
	}
	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.EventWithCount{}
	}
	return events, total, nil
}

func (s *eventService) ListPublicEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListPublic(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, principal domain.Principal, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getManaged(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}
	patch.Apply(event)
	if err := normalizeEvent(event); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.eventRepo.Update(ctx, event)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, principal domain.Principal, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getManaged(ctx, principal, eventID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) GetStats(ctx context.Context, principal domain.Principal, eventID string) (*domain.EventStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getManaged(ctx, principal, eventID); err != nil {
		return nil, err
	}
	stats, err := s.attendanceRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	return stats, nil
}

func (s *eventService) ListCheckins(ctx context.Context, principal domain.Principal, eventID string) ([]*domain.AttendanceWithAttendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getManaged(ctx, principal, eventID); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if records == nil {
		records = []*domain.AttendanceWithAttendee{}
	}
	return records, nil
}

func (s *eventService) ExportCheckins(ctx context.Context, principal domain.Principal, eventID string, format domain.ExportFormat) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !format.Valid() {
		return "", fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, format)
	}
	event, err := s.getManaged(ctx, principal, eventID)
	if err != nil {
		return "", err
	}
	records, err := s.attendanceRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("list attendance: %w", err)
	}
	data, err := s.exporter.Export(format, event, records, s.loc)
	if err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}
	key := fmt.Sprintf("exports/event_%s_%s.%s", event.ID, s.now().In(s.loc).Format("20060102_150405"), format)
	url, err := s.storage.Put(ctx, key, format.ContentType(), data)
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	metrics.ExportsGenerated.WithLabelValues(string(format)).Inc()
	return url, nil
}
