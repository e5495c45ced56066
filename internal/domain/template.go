package domain

import (
	"context"
	"encoding/json"
	"time"
)

// TemplateType classifies what a registration template collects.
type TemplateType string

const (
	TemplateTypeRegistration     TemplateType = "registration"
	TemplateTypeSurvey           TemplateType = "survey"
	TemplateTypeProfileExtension TemplateType = "profile_extension"
)

// Valid reports whether t is a known template type.
func (t TemplateType) Valid() bool {
	switch t {
	case TemplateTypeRegistration, TemplateTypeSurvey, TemplateTypeProfileExtension:
		return true
	}
	return false
}

// Survey triggers.
const (
	SurveyTriggerCourseStart = "course_start"
	SurveyTriggerCourseEnd   = "course_end"
)

// RegistrationTemplate is a reusable set of form fields attached to events.
// swagger:model RegistrationTemplate
type RegistrationTemplate struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             TemplateType    `json:"type"`
	SurveyTrigger    *string         `json:"survey_trigger"`
	FieldsSchema     json.RawMessage `json:"fields_schema" swaggertype:"array,object"`
	IsPublic         bool            `json:"is_public"`
	CreatedByAdminID *string         `json:"created_by_admin_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// VisibleTo reports whether p may read t.
func (t *RegistrationTemplate) VisibleTo(p Principal) bool {
	return t.IsPublic || t.ManageableBy(p)
}

// ManageableBy reports whether p may modify or delete t.
func (t *RegistrationTemplate) ManageableBy(p Principal) bool {
	owner := ""
	if t.CreatedByAdminID != nil {
		owner = *t.CreatedByAdminID
	}
	return CanManage(p, owner)
}

// TemplatePatch holds a partial template update. Nil fields are left unchanged.
type TemplatePatch struct {
	Name          *string
	Type          *TemplateType
	SurveyTrigger *string
	FieldsSchema  json.RawMessage
	IsPublic      *bool
}

// TemplateRepository defines the interface for template storage.
// ListVisible returns every template when all is set, otherwise the public
// templates plus those created by ownerID.
type TemplateRepository interface {
	Create(ctx context.Context, t *RegistrationTemplate) error
	GetByID(ctx context.Context, id string) (*RegistrationTemplate, error)
	ListVisible(ctx context.Context, ownerID string, all bool) ([]*RegistrationTemplate, error)
	Update(ctx context.Context, t *RegistrationTemplate) error
	Delete(ctx context.Context, id string) error
}

// TemplateService defines registration template operations.
type TemplateService interface {
	List(ctx context.Context, principal Principal) ([]*RegistrationTemplate, error)
	Create(ctx context.Context, principal Principal, t *RegistrationTemplate) (*RegistrationTemplate, error)
	Get(ctx context.Context, principal Principal, id string) (*RegistrationTemplate, error)
	Update(ctx context.Context, principal Principal, id string, patch TemplatePatch) (*RegistrationTemplate, error)
	Delete(ctx context.Context, principal Principal, id string) error
}
