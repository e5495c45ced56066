package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkinflow/internal/domain"
	"checkinflow/internal/metrics"
)

type attendanceService struct {
	tx             domain.Transactor
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	attendanceRepo domain.AttendanceRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAttendanceService creates an AttendanceService. Submissions run inside tx.
func NewAttendanceService(tx domain.Transactor, eventRepo domain.EventRepository, attendeeRepo domain.AttendeeRepository, attendanceRepo domain.AttendanceRepository, timeout time.Duration) domain.AttendanceService {
	return &attendanceService{
		tx:             tx,
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		attendanceRepo: attendanceRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// attendancePlan is what a submission would do if applied now.
type attendancePlan struct {
	action domain.AttendanceAction
	record *domain.AttendanceRecord
}

// planAttendance classifies a submission without touching storage. Submit and
// CheckEligibility both go through here.
func planAttendance(event *domain.Event, record *domain.AttendanceRecord, geolocation *string, now time.Time) (attendancePlan, error) {
	if err := checkLocation(event, geolocation); err != nil {
		return attendancePlan{}, err
	}
	if record == nil {
		return attendancePlan{action: domain.ActionCheckin}, nil
	}
	if record.Completed() {
		return attendancePlan{}, domain.ErrAlreadyComplete
	}
	d := EvaluateCheckout(event, record.CheckinTime, now)
	switch d.Verdict {
	case CheckoutNotApplicable:
		return attendancePlan{}, domain.ErrCheckoutNotRequired
	case CheckoutTooEarly:
		return attendancePlan{}, &domain.TooEarlyError{RemainingMinutes: d.RemainingMinutes}
	}
	return attendancePlan{action: domain.ActionCheckout, record: record}, nil
}

// loadSubjects fetches the event, the attendee and the attendee's record for the event.
func (s *attendanceService) loadSubjects(ctx context.Context, attendeeID, eventID string) (*domain.Event, *domain.Attendee, *domain.AttendanceRecord, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, domain.ErrNotFound
		}
		return nil, nil, nil, fmt.Errorf("get event: %w", err)
	}
	attendee, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return event, nil, nil, domain.ErrNotRegistered
		}
		return nil, nil, nil, fmt.Errorf("get attendee: %w", err)
	}
	record, err := s.attendanceRepo.GetByEventAndAttendee(ctx, eventID, attendeeID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, fmt.Errorf("get attendance record: %w", err)
		}
		record = nil
	}
	return event, attendee, record, nil
}

func (s *attendanceService) Submit(ctx context.Context, sub domain.AttendanceSubmission) (*domain.AttendanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var result *domain.AttendanceResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, attendee, record, err := s.loadSubjects(ctx, sub.AttendeeID, sub.EventID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		plan, err := planAttendance(event, record, sub.Geolocation, now)
		if err != nil {
			return err
		}

		switch plan.action {
		case domain.ActionCheckin:
			record = domain.NewCheckin(attendee.ID, event.ID, sub.Geolocation, sub.Answers, now)
			if err := s.attendanceRepo.Create(ctx, record); err != nil {
				if errors.Is(err, domain.ErrDuplicateAttendance) {
					return domain.ErrDuplicateAttendance
				}
				return fmt.Errorf("create attendance record: %w", err)
			}
		case domain.ActionCheckout:
			record = plan.record
			record.CheckoutTime = &now
			record.Status = domain.StatusCheckedOut
			record.UpdatedAt = now
			if sub.Geolocation != nil {
				record.Geolocation = sub.Geolocation
			}
			if err := s.attendanceRepo.MarkCheckedOut(ctx, record); err != nil {
				if errors.Is(err, domain.ErrAlreadyComplete) {
					return domain.ErrAlreadyComplete
				}
				return fmt.Errorf("check out: %w", err)
			}
		}

		if attendee.MergeProfile(sub.ProfileData) {
			attendee.UpdatedAt = now
			if err := s.attendeeRepo.Update(ctx, attendee); err != nil {
				return fmt.Errorf("update attendee profile: %w", err)
			}
		}
		result = &domain.AttendanceResult{Action: plan.action, Record: record}
		return nil
	})
	if err != nil {
		metrics.AttendanceRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	metrics.AttendanceActions.WithLabelValues(string(result.Action)).Inc()
	return result, nil
}

func (s *attendanceService) CheckEligibility(ctx context.Context, attendeeID, eventID string, geolocation *string) (*domain.Eligibility, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, attendee, record, err := s.loadSubjects(ctx, attendeeID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			return &domain.Eligibility{Status: domain.EligibilityNotRegistered, Message: err.Error()}, nil
		}
		return nil, err
	}
	summary := attendee.Summary()
	out := &domain.Eligibility{Attendee: &summary, Record: record}
	plan, err := planAttendance(event, record, geolocation, s.now().UTC())
	if err != nil {
		return classifyIneligible(out, err)
	}
	out.Valid = true
	if plan.action == domain.ActionCheckin {
		out.Status = domain.EligibilityCheckin
		out.Message = "ready to check in"
	} else {
		out.Status = domain.EligibilityCheckout
		out.Message = "ready to check out"
	}
	return out, nil
}

// classifyIneligible fills out from a planAttendance error. Errors that are
// not attendance rules are returned as-is.
func classifyIneligible(out *domain.Eligibility, err error) (*domain.Eligibility, error) {
	out.Message = err.Error()
	var tooEarly *domain.TooEarlyError
	var outOfRange *domain.OutOfRangeError
	switch {
	case errors.As(err, &tooEarly):
		out.Status = domain.EligibilityTooEarly
		out.RemainingMinutes = tooEarly.RemainingMinutes
	case errors.As(err, &outOfRange):
		out.Status = domain.EligibilityLocationRejected
		out.Distance = &outOfRange.Distance
		out.Radius = &outOfRange.Radius
	case errors.Is(err, domain.ErrInvalidLocation), errors.Is(err, domain.ErrLocationNotConfigured):
		out.Status = domain.EligibilityLocationRejected
	case errors.Is(err, domain.ErrAlreadyComplete):
		out.Status = domain.EligibilityAlreadyComplete
	case errors.Is(err, domain.ErrCheckoutNotRequired):
		out.Status = domain.EligibilityCheckoutNotRequired
	default:
		return nil, err
	}
	return out, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "event_not_found"
	case errors.Is(err, domain.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, domain.ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, domain.ErrLocationNotConfigured):
		return "location_not_configured"
	case errors.Is(err, domain.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrAlreadyComplete):
		return "already_complete"
	case errors.Is(err, domain.ErrCheckoutNotRequired):
		return "checkout_not_required"
	case errors.Is(err, domain.ErrTooEarly):
		return "too_early"
	case errors.Is(err, domain.ErrDuplicateAttendance):
		return "duplicate"
	}
	return "error"
}
