package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkinflow/internal/domain"
)

type templateService struct {
	templateRepo   domain.TemplateRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewTemplateService creates a TemplateService backed by templateRepo.
func NewTemplateService(templateRepo domain.TemplateRepository, timeout time.Duration) domain.TemplateService {
	return &templateService{
		templateRepo:   templateRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func validateTemplate(t *domain.RegistrationTemplate) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown template type %q", domain.ErrInvalidInput, t.Type)
	}
	if t.SurveyTrigger != nil {
		switch *t.SurveyTrigger {
		case domain.SurveyTriggerCourseStart, domain.SurveyTriggerCourseEnd:
		default:
			return fmt.Errorf("%w: unknown survey_trigger %q", domain.ErrInvalidInput, *t.SurveyTrigger)
		}
	}
	if len(t.FieldsSchema) == 0 {
		t.FieldsSchema = json.RawMessage("[]")
	}
	var fields []map[string]any
	if err := json.Unmarshal(t.FieldsSchema, &fields); err != nil {
		return fmt.Errorf("%w: fields_schema must be an array of objects", domain.ErrInvalidInput)
	}
	return nil
}

func (s *templateService) List(ctx context.Context, principal domain.Principal) ([]*domain.RegistrationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageTemplates) {
		return nil, domain.ErrForbidden
	}
	all := domain.Authorize(principal, domain.CapSeeAllEvents)
	templates, err := s.templateRepo.ListVisible(ctx, principal.Subject, all)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if templates == nil {
		templates = []*domain.RegistrationTemplate{}
	}
	return templates, nil
}

func (s *templateService) Create(ctx context.Context, principal domain.Principal, t *domain.RegistrationTemplate) (*domain.RegistrationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.Authorize(principal, domain.CapManageTemplates) {
		return nil, domain.ErrForbidden
	}
	if t.IsPublic && !domain.Authorize(principal, domain.CapPublishTemplates) {
		return nil, domain.ErrForbidden
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	owner := principal.Subject
	t.CreatedByAdminID = &owner
	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.templateRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

func (s *templateService) get(ctx context.Context, id string) (*domain.RegistrationTemplate, error) {
	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *templateService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.RegistrationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(principal) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (s *templateService) Update(ctx context.Context, principal domain.Principal, id string, patch domain.TemplatePatch) (*domain.RegistrationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.ManageableBy(principal) {
		return nil, domain.ErrForbidden
	}
	if patch.IsPublic != nil && *patch.IsPublic != t.IsPublic && !domain.Authorize(principal, domain.CapPublishTemplates) {
		return nil, domain.ErrForbidden
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.SurveyTrigger != nil {
		t.SurveyTrigger = patch.SurveyTrigger
	}
	if patch.FieldsSchema != nil {
		t.FieldsSchema = patch.FieldsSchema
	}
	if patch.IsPublic != nil {
		t.IsPublic = *patch.IsPublic
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	if err := s.templateRepo.Update(ctx, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

func (s *templateService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	t, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !t.ManageableBy(principal) {
		return domain.ErrForbidden
	}
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
