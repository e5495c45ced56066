package helpers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"checkinflow/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrNotRegistered, http.StatusNotFound, ErrCodeNotRegistered},
	{domain.ErrInvalidLocation, http.StatusBadRequest, ErrCodeInvalidLocation},
	{domain.ErrLocationNotConfigured, http.StatusBadRequest, ErrCodeLocationNotConfigured},
	{domain.ErrOutOfRange, http.StatusBadRequest, ErrCodeOutOfRange},
	{domain.ErrAlreadyComplete, http.StatusBadRequest, ErrCodeAlreadyComplete},
	{domain.ErrCheckoutNotRequired, http.StatusBadRequest, ErrCodeCheckoutNotRequired},
	{domain.ErrTooEarly, http.StatusBadRequest, ErrCodeTooEarly},
	{domain.ErrInvalidRange, http.StatusBadRequest, ErrCodeInvalidRange},
	{domain.ErrInvalidTimeFormat, http.StatusBadRequest, ErrCodeInvalidTimeFormat},
	{domain.ErrEmptyResult, http.StatusBadRequest, ErrCodeEmptyResult},
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeInvalidCredentials},
	{domain.ErrAccountDisabled, http.StatusForbidden, ErrCodeAccountDisabled},
	{domain.ErrRegistrationClosed, http.StatusForbidden, ErrCodeRegistrationClosed},
	{domain.ErrDuplicateAttendance, http.StatusConflict, ErrCodeConflict},
	{domain.ErrDuplicate, http.StatusConflict, ErrCodeConflict},
}

// StatusFor returns the HTTP status and error code for a service error.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// messageFor renders the client-facing message, expanding typed detail errors.
func messageFor(err error) string {
	var outOfRange *domain.OutOfRangeError
	if errors.As(err, &outOfRange) {
		return fmt.Sprintf("outside the allowed check-in range (%s)", outOfRange.Detail())
	}
	var tooEarly *domain.TooEarlyError
	if errors.As(err, &tooEarly) {
		return fmt.Sprintf("checkout opens in %d minutes", tooEarly.RemainingMinutes)
	}
	return err.Error()
}

// WriteServiceError maps err onto the JSON error envelope. Unexpected errors are logged.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	WriteJSONError(w, status, code, messageFor(err))
}
