package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"
)

// CreateAdminRequest is the request body for POST /admins.
type CreateAdminRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// Validate implements Validator.
func (c CreateAdminRequest) Validate() []string {
	errs := LoginRequest{Username: c.Username, Password: c.Password}.Validate()
	if c.Role != "" && !c.Role.IsStaff() {
		errs = append(errs, "role must be system_admin, admin or member")
	}
	return errs
}

// SetAdminStatusRequest is the request body for PUT /admins/{adminID}/status.
type SetAdminStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// Validate implements Validator.
func (s SetAdminStatusRequest) Validate() []string {
	if s.IsActive == nil {
		return []string{"is_active is required"}
	}
	return nil
}

// AdminListSuccessResponse is the success response envelope for GET /admins (200).
type AdminListSuccessResponse struct {
	Data  []*domain.Admin `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type AdminController struct {
	Logger  *slog.Logger
	Service domain.AdminService
}

func NewAdminController(logger *slog.Logger, svc domain.AdminService) *AdminController {
	return &AdminController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List administrators
// @Tags admins
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AdminListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admins [get]
func (c *AdminController) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	admins, err := c.Service.List(r.Context(), principal)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, admins)
}

// Create godoc
// @Summary Create an administrator
// @Description System admins only. Role defaults to member.
// @Tags admins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateAdminRequest true "Account"
// @Success 201 {object} controllers.AdminSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admins [post]
func (c *AdminController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	role := req.Role
	if role == "" {
		role = domain.RoleMember
	}
	admin, err := c.Service.Create(r.Context(), principal, strings.TrimSpace(req.Username), req.Password, role)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, admin)
}

// Delete godoc
// @Summary Delete an administrator
// @Description System admins only; an administrator cannot delete their own account.
// @Tags admins
// @Security BearerAuth
// @Param adminID path string true "Admin ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (including self-deletion)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admins/{adminID} [delete]
func (c *AdminController) Delete(w http.ResponseWriter, r *http.Request) {
	adminID, ok := pathID(w, r, "adminID")
	if !ok {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), principal, adminID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus godoc
// @Summary Activate or deactivate an administrator
// @Description System admins only; an administrator cannot deactivate their own account.
// @Tags admins
// @Accept json
// @Security BearerAuth
// @Param adminID path string true "Admin ID (UUID)"
// @Param body body SetAdminStatusRequest true "New status"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admins/{adminID}/status [put]
func (c *AdminController) SetStatus(w http.ResponseWriter, r *http.Request) {
	adminID, ok := pathID(w, r, "adminID")
	if !ok {
		return
	}
	var req SetAdminStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	if err := c.Service.SetActive(r.Context(), principal, adminID, *req.IsActive); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
