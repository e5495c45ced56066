package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"
)

// TemplateRequest is the request body for POST /templates.
type TemplateRequest struct {
	Name          string              `json:"name"`
	Type          domain.TemplateType `json:"type"`
	SurveyTrigger *string             `json:"survey_trigger"`
	FieldsSchema  json.RawMessage     `json:"fields_schema" swaggertype:"array,object"`
	IsPublic      bool                `json:"is_public"`
}

// Validate implements Validator. The fields_schema shape is checked by the service.
func (t TemplateRequest) Validate() []string {
	var errs []string
	if t.Name == "" {
		errs = append(errs, "name is required")
	}
	if !t.Type.Valid() {
		errs = append(errs, "type must be registration, survey or profile_extension")
	}
	return errs
}

// UpdateTemplateRequest is the request body for PUT /templates/{templateID}. Omitted fields are unchanged.
type UpdateTemplateRequest struct {
	Name          *string              `json:"name"`
	Type          *domain.TemplateType `json:"type"`
	SurveyTrigger *string              `json:"survey_trigger"`
	FieldsSchema  json.RawMessage      `json:"fields_schema" swaggertype:"array,object"`
	IsPublic      *bool                `json:"is_public"`
}

// TemplateSuccessResponse is the success response envelope for a single template.
type TemplateSuccessResponse struct {
	Data  *domain.RegistrationTemplate `json:"data"`
	Error *helpers.APIError            `json:"error"`
}

// TemplateListSuccessResponse is the success response envelope for GET /templates (200).
type TemplateListSuccessResponse struct {
	Data  []*domain.RegistrationTemplate `json:"data"`
	Error *helpers.APIError              `json:"error"`
}

type TemplateController struct {
	Logger  *slog.Logger
	Service domain.TemplateService
}

func NewTemplateController(logger *slog.Logger, svc domain.TemplateService) *TemplateController {
	return &TemplateController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List registration templates
// @Description System admins see every template; others see public templates and their own.
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.TemplateListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /templates [get]
func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	templates, err := c.Service.List(r.Context(), principal)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, templates)
}

// Create godoc
// @Summary Create a registration template
// @Description Only system admins may create public templates.
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TemplateRequest true "Template"
// @Success 201 {object} controllers.TemplateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /templates [post]
func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	tpl, err := c.Service.Create(r.Context(), principal, &domain.RegistrationTemplate{
		Name:          req.Name,
		Type:          req.Type,
		SurveyTrigger: req.SurveyTrigger,
		FieldsSchema:  req.FieldsSchema,
		IsPublic:      req.IsPublic,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, tpl)
}

// Get godoc
// @Summary Get a registration template
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param templateID path string true "Template ID (UUID)"
// @Success 200 {object} controllers.TemplateSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /templates/{templateID} [get]
func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	templateID, ok := pathID(w, r, "templateID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	tpl, err := c.Service.Get(r.Context(), principal, templateID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tpl)
}

// Update godoc
// @Summary Update a registration template
// @Description Owner or system admin only.
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param templateID path string true "Template ID (UUID)"
// @Param body body UpdateTemplateRequest true "Fields to update"
// @Success 200 {object} controllers.TemplateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /templates/{templateID} [put]
func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	templateID, ok := pathID(w, r, "templateID")
	if !ok {
		return
	}
	var req UpdateTemplateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	tpl, err := c.Service.Update(r.Context(), principal, templateID, domain.TemplatePatch{
		Name:          req.Name,
		Type:          req.Type,
		SurveyTrigger: req.SurveyTrigger,
		FieldsSchema:  req.FieldsSchema,
		IsPublic:      req.IsPublic,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tpl)
}

// Delete godoc
// @Summary Delete a registration template
// @Description Owner or system admin only.
// @Tags templates
// @Security BearerAuth
// @Param templateID path string true "Template ID (UUID)"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /templates/{templateID} [delete]
func (c *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	templateID, ok := pathID(w, r, "templateID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), principal, templateID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
