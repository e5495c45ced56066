package domain

import (
	"context"
	"time"
)

// Role is a principal's capability tier.
type Role string

const (
	RoleSystemAdmin Role = "system_admin"
	RoleAdmin       Role = "admin"
	RoleMember      Role = "member"
	RoleAttendee    Role = "attendee"
	// RolePendingRegistration marks a LINE identity that has not registered yet.
	RolePendingRegistration Role = "pending_registration"
)

// IsStaff reports whether r belongs to an administrator account.
func (r Role) IsStaff() bool {
	return r == RoleSystemAdmin || r == RoleAdmin || r == RoleMember
}

// Capability names an action guarded by Authorize.
type Capability string

const (
	CapManageEvents     Capability = "manage_events"
	CapManageTemplates  Capability = "manage_templates"
	CapPublishTemplates Capability = "publish_templates"
	CapManageAdmins     Capability = "manage_admins"
	CapViewAttendees    Capability = "view_attendees"
	CapSeeAllEvents     Capability = "see_all_events"
	CapSubmitAttendance Capability = "submit_attendance"
	CapCompleteSignup   Capability = "complete_signup"
)

var roleCapabilities = map[Role][]Capability{
	RoleSystemAdmin:         {CapManageEvents, CapManageTemplates, CapPublishTemplates, CapManageAdmins, CapViewAttendees, CapSeeAllEvents},
	RoleAdmin:               {CapManageEvents, CapManageTemplates, CapViewAttendees},
	RoleMember:              {CapManageEvents, CapManageTemplates, CapViewAttendees},
	RoleAttendee:            {CapSubmitAttendance},
	RolePendingRegistration: {CapCompleteSignup},
}

// Principal is the authenticated subject of a request.
type Principal struct {
	Subject string
	Role    Role
}

// Authorize is the single policy check for role capabilities.
func Authorize(p Principal, c Capability) bool {
	for _, granted := range roleCapabilities[p.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// CanManage reports whether p may modify a resource owned by ownerID.
func CanManage(p Principal, ownerID string) bool {
	if Authorize(p, CapSeeAllEvents) {
		return true
	}
	return p.Role.IsStaff() && p.Subject != "" && p.Subject == ownerID
}

// Admin is an administrator account.
// swagger:model Admin
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAdmin returns a new active Admin. ID is typically set by the repository on create.
func NewAdmin(username, passwordHash string, role Role, createdAt, updatedAt time.Time) *Admin {
	return &Admin{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// Principal returns the request principal for a.
func (a *Admin) Principal() Principal {
	return Principal{Subject: a.ID, Role: a.Role}
}

// PasswordHasher hashes and verifies administrator passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues signed bearer tokens.
type TokenIssuer interface {
	Issue(subject string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns its principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// AdminLookup loads an administrator account by id. AdminRepository satisfies it.
type AdminLookup interface {
	GetByID(ctx context.Context, id string) (*Admin, error)
}

// AdminRepository defines the interface for administrator storage.
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// AdminService defines administrator account and authentication operations.
type AdminService interface {
	Login(ctx context.Context, username, password string) (string, *Admin, error)
	Register(ctx context.Context, username, password string) (*Admin, error)
	RegistrationOpen() bool
	GetByID(ctx context.Context, id string) (*Admin, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	List(ctx context.Context, principal Principal) ([]*Admin, error)
	Create(ctx context.Context, principal Principal, username, password string, role Role) (*Admin, error)
	Delete(ctx context.Context, principal Principal, id string) error
	SetActive(ctx context.Context, principal Principal, id string, active bool) error
}
