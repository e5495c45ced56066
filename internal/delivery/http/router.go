package http

import (
	"log/slog"
	"net/http"

	"checkinflow/internal/delivery/http/controllers"
	"checkinflow/internal/delivery/http/helpers"
	"checkinflow/internal/delivery/http/middleware"
	"checkinflow/internal/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps carries the controllers and auth collaborators mounted by NewRouter.
type RouterDeps struct {
	Logger    *slog.Logger
	Verifier  domain.TokenVerifier
	Accounts  domain.AdminLookup
	UploadDir string

	Events    *controllers.EventController
	Checkins  *controllers.CheckinController
	Attendees *controllers.AttendeeController
	Auth      *controllers.AuthController
	Admins    *controllers.AdminController
	Templates *controllers.TemplateController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	verify := middleware.RequireAuth(d.Verifier, d.Logger)
	active := middleware.RequireActiveAccount(d.Accounts, d.Logger)
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return verify(active(next))
	}
	with := func(c domain.Capability, next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireCapability(c)(next))
	}
	staff := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireStaff()(next))
	}

	// Operational
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)
	if d.UploadDir != "" {
		mux.Handle("GET /files/", uploadsHandler(d.UploadDir))
	}

	// Events
	mux.HandleFunc("GET /events/public", d.Events.ListPublicEvents)
	mux.HandleFunc("GET /events/{eventID}", d.Events.GetEvent)
	mux.HandleFunc("GET /events", with(domain.CapManageEvents, d.Events.ListEvents))
	mux.HandleFunc("POST /events", with(domain.CapManageEvents, d.Events.CreateEvent))
	mux.HandleFunc("POST /events/series", with(domain.CapManageEvents, d.Events.CreateSeries))
	mux.HandleFunc("PATCH /events/{eventID}", with(domain.CapManageEvents, d.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", with(domain.CapManageEvents, d.Events.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/stats", with(domain.CapManageEvents, d.Events.GetStats))
	mux.HandleFunc("GET /events/{eventID}/checkins", with(domain.CapManageEvents, d.Events.ListCheckins))
	mux.HandleFunc("GET /events/{eventID}/export", with(domain.CapManageEvents, d.Events.ExportCheckins))

	// Check-ins
	mux.HandleFunc("POST /checkins", with(domain.CapSubmitAttendance, d.Checkins.Submit))
	mux.HandleFunc("POST /checkins/validate", with(domain.CapSubmitAttendance, d.Checkins.Validate))

	// Attendees
	mux.HandleFunc("GET /auth/line/login", d.Attendees.LineLogin)
	mux.HandleFunc("GET /auth/line/callback", d.Attendees.LineCallback)
	mux.HandleFunc("POST /attendees", with(domain.CapCompleteSignup, d.Attendees.Register))
	mux.HandleFunc("GET /attendees", with(domain.CapViewAttendees, d.Attendees.List))
	mux.HandleFunc("GET /attendees/me", with(domain.CapSubmitAttendance, d.Attendees.GetMe))
	mux.HandleFunc("GET /attendees/{attendeeID}", with(domain.CapViewAttendees, d.Attendees.Get))
	mux.HandleFunc("PATCH /attendees/me", with(domain.CapSubmitAttendance, d.Attendees.UpdateMe))

	// Auth
	mux.HandleFunc("GET /auth/config", d.Auth.Config)
	mux.HandleFunc("POST /auth/login", d.Auth.Login)
	mux.HandleFunc("POST /auth/register", d.Auth.Register)
	mux.HandleFunc("POST /auth/logout", d.Auth.Logout)
	mux.HandleFunc("GET /auth/me", staff(d.Auth.Me))
	mux.HandleFunc("POST /auth/change-password", staff(d.Auth.ChangePassword))

	// Admins
	mux.HandleFunc("GET /admins", with(domain.CapManageAdmins, d.Admins.List))
	mux.HandleFunc("POST /admins", with(domain.CapManageAdmins, d.Admins.Create))
	mux.HandleFunc("DELETE /admins/{adminID}", with(domain.CapManageAdmins, d.Admins.Delete))
	mux.HandleFunc("PUT /admins/{adminID}/status", with(domain.CapManageAdmins, d.Admins.SetStatus))

	// Templates
	mux.HandleFunc("GET /templates", with(domain.CapManageTemplates, d.Templates.List))
	mux.HandleFunc("POST /templates", with(domain.CapManageTemplates, d.Templates.Create))
	mux.HandleFunc("GET /templates/{templateID}", with(domain.CapManageTemplates, d.Templates.Get))
	mux.HandleFunc("PUT /templates/{templateID}", with(domain.CapManageTemplates, d.Templates.Update))
	mux.HandleFunc("DELETE /templates/{templateID}", with(domain.CapManageTemplates, d.Templates.Delete))

	return mux
}
