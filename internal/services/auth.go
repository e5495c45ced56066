package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkinflow/internal/domain"
)

const (
	minPasswordLen = 8
	minUsernameLen = 3
	maxUsernameLen = 50
)

type adminService struct {
	adminRepo         domain.AdminRepository
	hasher            domain.PasswordHasher
	tokenIssuer       domain.TokenIssuer
	tokenExpiry       time.Duration
	allowRegistration bool
	contextTimeout    time.Duration
	now               func() time.Time
}

// NewAdminService creates an AdminService with the given repository and auth ports.
func NewAdminService(adminRepo domain.AdminRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration, allowRegistration bool, timeout time.Duration) domain.AdminService {
	return &adminService{
		adminRepo:         adminRepo,
		hasher:            hasher,
		tokenIssuer:       tokenIssuer,
		tokenExpiry:       tokenExpiry,
		allowRegistration: allowRegistration,
		contextTimeout:    timeout,
		now:               time.Now,
	}
}

func validateCredentials(username, password string) error {
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d to %d characters", domain.ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	return nil
}

func (s *adminService) Login(ctx context.Context, username, password string) (string, *domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	admin, err := s.adminRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get admin: %w", err)
	}
	if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !admin.IsActive {
		return "", nil, domain.ErrAccountDisabled
	}
	token, err := s.tokenIssuer.Issue(admin.ID, admin.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, admin, nil
}

func (s *adminService) RegistrationOpen() bool {
	return s.allowRegistration
}

func (s *adminService) Register(ctx context.Context, username, password string) (*domain.Admin, error) {
	if !s.allowRegistration {
		return nil, domain.ErrRegistrationClosed
	}
	return s.create(ctx, username, password, domain.RoleMember)
}

func (s *adminService) create(ctx context.Context, username, password string, role domain.Role) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if !role.IsStaff() {
		return nil, fmt.Errorf("%w: unknown admin role %q", domain.ErrInvalidInput, role)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	admin := domain.NewAdmin(username, hash, role, now, now)
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

func (s *adminService) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

func (s *adminService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	admin, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(admin.PasswordHash, oldPassword); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	if err := s.adminRepo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *adminService) List(ctx context.Context, principal domain.Principal) ([]*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageAdmins) {
		return nil, domain.ErrForbidden
	}
	admins, err := s.adminRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	if admins == nil {
		admins = []*domain.Admin{}
	}
	return admins, nil
}

func (s *adminService) Create(ctx context.Context, principal domain.Principal, username, password string, role domain.Role) (*domain.Admin, error) {
	if !domain.Authorize(principal, domain.CapManageAdmins) {
		return nil, domain.ErrForbidden
	}
	return s.create(ctx, username, password, role)
}

func (s *adminService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageAdmins) {
		return domain.ErrForbidden
	}
	if id == principal.Subject {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrInvalidInput)
	}
	if err := s.adminRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

func (s *adminService) SetActive(ctx context.Context, principal domain.Principal, id string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageAdmins) {
		return domain.ErrForbidden
	}
	if id == principal.Subject {
		return fmt.Errorf("%w: cannot change the status of your own account", domain.ErrInvalidInput)
	}
	if err := s.adminRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("set admin status: %w", err)
	}
	return nil
}
