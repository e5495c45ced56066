package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/domain"
)

type contextKey string

const principalKey contextKey = "principal"

// SetPrincipal returns a context carrying p. Used by auth middleware.
func SetPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated principal from the context, if present.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the principal in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			principal, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetPrincipal(r.Context(), principal))
			next(w, r)
		}
	}
}

// RequireActiveAccount returns a wrapper that reloads the administrator behind a staff principal.
// A deleted account gets 401 unauthorized and a deactivated one 401 account_disabled.
// The stored role replaces the role carried by the token. Other principals pass through.
// It must run after RequireAuth.
func RequireActiveAccount(accounts domain.AdminLookup, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok || !p.Role.IsStaff() {
				next(w, r)
				return
			}
			admin, err := accounts.GetByID(r.Context(), p.Subject)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "account no longer exists")
					return
				}
				logger.ErrorContext(r.Context(), "load account", "subject", p.Subject, "err", err)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
				return
			}
			if !admin.IsActive {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeAccountDisabled, "account is disabled")
				return
			}
			r = r.WithContext(SetPrincipal(r.Context(), admin.Principal()))
			next(w, r)
		}
	}
}

// RequireCapability returns a wrapper that responds 403 unless the principal holds c.
// It must run after RequireAuth.
func RequireCapability(c domain.Capability) func(http.HandlerFunc) http.HandlerFunc {
	return requirePrincipal(func(p domain.Principal) bool { return domain.Authorize(p, c) })
}

// RequireStaff returns a wrapper that responds 403 unless the principal is an administrator account.
func RequireStaff() func(http.HandlerFunc) http.HandlerFunc {
	return requirePrincipal(func(p domain.Principal) bool { return p.Role.IsStaff() })
}

func requirePrincipal(allow func(domain.Principal) bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
				return
			}
			if !allow(p) {
				h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "forbidden")
				return
			}
			next(w, r)
		}
	}
}
