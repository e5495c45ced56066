package controllers

import (
	"net/http"

	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/delivery/http/middleware"
	"checkinflow/internal/domain"

	"github.com/google/uuid"
)

// principalFrom returns the authenticated principal or writes 401.
func principalFrom(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return p, ok
}

// pathID reads a UUID path value or writes 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if uuid.Validate(id) != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, name+" must be a UUID")
		return "", false
	}
	return id, true
}

func validLatLng(lat, lng *float64) []string {
	var errs []string
	if lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, "latitude must be between -90 and 90")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		errs = append(errs, "longitude must be between -180 and 180")
	}
	return errs
}
