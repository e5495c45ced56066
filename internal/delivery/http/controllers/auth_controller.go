package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"
)

// LoginRequest is the request body for POST /auth/login and POST /auth/register.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Username) == "" {
		errs = append(errs, "username is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        *domain.Admin `json:"user"`
}

// LoginSuccessResponse is the success response envelope for POST /auth/login (200).
type LoginSuccessResponse struct {
	Data  LoginResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// AdminSuccessResponse is the success response envelope for a single administrator.
type AdminSuccessResponse struct {
	Data  *domain.Admin `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// AuthConfigResponse is the body of GET /auth/config.
type AuthConfigResponse struct {
	AllowRegistration bool `json:"allow_registration"`
}

// AuthConfigSuccessResponse is the success response envelope for GET /auth/config (200).
type AuthConfigSuccessResponse struct {
	Data  AuthConfigResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ChangePasswordRequest is the request body for POST /auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate implements Validator. Length rules are enforced by the service.
func (c ChangePasswordRequest) Validate() []string {
	var errs []string
	if c.OldPassword == "" {
		errs = append(errs, "old_password is required")
	}
	if c.NewPassword == "" {
		errs = append(errs, "new_password is required")
	}
	return errs
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AdminService
}

func NewAuthController(logger *slog.Logger, svc domain.AdminService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless, so the client discards its token. Always succeeds.
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Config godoc
// @Summary Get authentication settings
// @Description Reports whether administrator self-registration is open.
// @Tags auth
// @Produce json
// @Success 200 {object} controllers.AuthConfigSuccessResponse
// @Router /auth/config [get]
func (c *AuthController) Config(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, AuthConfigResponse{AllowRegistration: c.Service.RegistrationOpen()})
}

// Login godoc
// @Summary Administrator login
// @Description Authenticates with username and password and returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Username and password"
// @Success 200 {object} controllers.LoginSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_credentials"
// @Failure 403 {object} helpers.APIResponse "error.code: account_disabled"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, admin, err := c.Service.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, LoginResponse{AccessToken: token, TokenType: "bearer", User: admin})
}

// Register godoc
// @Summary Administrator self-registration
// @Description Creates a member account when registration is open.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Username and password"
// @Success 201 {object} controllers.AdminSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: registration_closed"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	admin, err := c.Service.Register(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, admin)
}

// Me godoc
// @Summary Get the current administrator
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AdminSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	admin, err := c.Service.GetByID(r.Context(), principal.Subject)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, admin)
}

// ChangePassword godoc
// @Summary Change the current administrator's password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Old and new password"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, invalid_credentials"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /auth/change-password [post]
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	principal, ok := principalFrom(w, r)
	if !ok {
		return
	}
	if err := c.Service.ChangePassword(r.Context(), principal.Subject, req.OldPassword, req.NewPassword); err != nil {
		// A wrong old password must not look like an expired session.
		if errors.Is(err, domain.ErrInvalidCredentials) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeInvalidCredentials, "old password is incorrect")
			return
		}
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
