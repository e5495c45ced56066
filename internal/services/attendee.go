package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"checkinflow/internal/domain"
)

// registrationTokenExpiry bounds how long a LINE identity may take to finish registering.
const registrationTokenExpiry = 15 * time.Minute

var phoneRegexp = regexp.MustCompile(`^09\d{8}$`)

type attendeeService struct {
	attendeeRepo   domain.AttendeeRepository
	line           domain.LineAuthenticator
	tokenIssuer    domain.TokenIssuer
	tokenExpiry    time.Duration
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAttendeeService creates an AttendeeService with the given repository and auth ports.
func NewAttendeeService(attendeeRepo domain.AttendeeRepository, line domain.LineAuthenticator, tokenIssuer domain.TokenIssuer, tokenExpiry, timeout time.Duration) domain.AttendeeService {
	return &attendeeService{
		attendeeRepo:   attendeeRepo,
		line:           line,
		tokenIssuer:    tokenIssuer,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *attendeeService) LineLoginURL(eventID string) string {
	return s.line.AuthCodeURL(eventID)
}

func (s *attendeeService) CompleteLineLogin(ctx context.Context, code string) (*domain.LineLoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrInvalidInput)
	}
	identity, err := s.line.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("line login: %w", err)
	}

	attendee, err := s.attendeeRepo.GetByLineUserID(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get attendee: %w", err)
		}
		regToken, err := s.tokenIssuer.Issue(identity.UserID, domain.RolePendingRegistration, registrationTokenExpiry)
		if err != nil {
			return nil, fmt.Errorf("issue registration token: %w", err)
		}
		return &domain.LineLoginResult{RegistrationToken: regToken, LineUserID: identity.UserID}, nil
	}

	token, err := s.tokenIssuer.Issue(attendee.ID, domain.RoleAttendee, s.tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.LineLoginResult{Attendee: attendee, Token: token, LineUserID: identity.UserID}, nil
}

func validateAttendeeFields(name, phone string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !phoneRegexp.MatchString(phone) {
		return fmt.Errorf("%w: phone must match 09XXXXXXXX", domain.ErrInvalidInput)
	}
	return nil
}

func (s *attendeeService) Register(ctx context.Context, lineUserID string, attendee *domain.Attendee) (*domain.Attendee, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if lineUserID == "" {
		return nil, "", fmt.Errorf("%w: missing LINE user id", domain.ErrInvalidInput)
	}
	attendee.Name = strings.TrimSpace(attendee.Name)
	attendee.Phone = strings.TrimSpace(attendee.Phone)
	if err := validateAttendeeFields(attendee.Name, attendee.Phone); err != nil {
		return nil, "", err
	}
	if _, err := s.attendeeRepo.GetByLineUserID(ctx, lineUserID); err == nil {
		return nil, "", domain.ErrDuplicate
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("get attendee: %w", err)
	}

	now := s.now()
	attendee.LineUserID = lineUserID
	attendee.CreatedAt = now
	attendee.UpdatedAt = now
	if attendee.ProfileData == nil {
		attendee.ProfileData = map[string]any{}
	}
	if err := s.attendeeRepo.Create(ctx, attendee); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, "", domain.ErrDuplicate
		}
		return nil, "", fmt.Errorf("create attendee: %w", err)
	}
	token, err := s.tokenIssuer.Issue(attendee.ID, domain.RoleAttendee, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return attendee, token, nil
}

func (s *attendeeService) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	attendee, err := s.attendeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return attendee, nil
}

func (s *attendeeService) UpdateProfile(ctx context.Context, id string, patch domain.AttendeePatch) (*domain.Attendee, error) {
	attendee, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		attendee.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		attendee.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Company != nil {
		attendee.Company = *patch.Company
	}
	if patch.Department != nil {
		attendee.Department = *patch.Department
	}
	attendee.MergeProfile(patch.ProfileData)
	if err := validateAttendeeFields(attendee.Name, attendee.Phone); err != nil {
		return nil, err
	}
	attendee.UpdatedAt = s.now()

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	if err := s.attendeeRepo.Update(ctx, attendee); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update attendee: %w", err)
	}
	return attendee, nil
}

func (s *attendeeService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	attendees, total, err := s.attendeeRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, total, nil
}
