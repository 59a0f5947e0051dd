package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightsmile-ai/receptionist/internal/appointments"
	httpmiddleware "github.com/brightsmile-ai/receptionist/internal/http/middleware"
	"github.com/brightsmile-ai/receptionist/internal/realtime"
	"github.com/brightsmile-ai/receptionist/internal/voice"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	RetellHandler       *voice.RetellHandler
	VapiHandler         *voice.VapiHandler
	WebCallHandler      *voice.WebCallHandler
	AppointmentsHandler *appointments.Handler
	DashboardHub        *realtime.Hub
	StaffAuthSecret     string
	CORSAllowedOrigins  []string
	MetricsHandler      http.Handler

	// Per-IP rate limit for the webhook endpoints. Zero disables limiting.
	WebhookRPS   float64
	WebhookBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Vendor webhooks. The clinic rides on a header or a query parameter
	// baked into the webhook URL configured at the vendor.
	r.Route("/webhooks", func(hooks chi.Router) {
		hooks.Use(httpmiddleware.ClinicResolver())
		if cfg.WebhookRPS > 0 {
			hooks.Use(httpmiddleware.RateLimit(cfg.WebhookRPS, cfg.WebhookBurst))
		}
		if cfg.VapiHandler != nil {
			hooks.Post("/vapi", cfg.VapiHandler.HandleServerMessage)
		}
		if cfg.RetellHandler != nil {
			hooks.Post("/retell", cfg.RetellHandler.HandleToolCall)
			hooks.Post("/retell/calls", cfg.RetellHandler.HandleCallEvent)
		}
	})

	// Browser-facing endpoints.
	if cfg.WebCallHandler != nil {
		r.Get("/api/create-web-call", cfg.WebCallHandler.HandleCreateWebCall)
	}
	if cfg.DashboardHub != nil {
		r.Get("/ws/dashboard", cfg.DashboardHub.HandleDashboard)
	}

	// Staff API (protected by JWT).
	if cfg.AppointmentsHandler != nil {
		r.Route("/api/clinics/{clinicID}/appointments", func(staff chi.Router) {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
			staff.Get("/", cfg.AppointmentsHandler.List)
			staff.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
			staff.Patch("/{appointmentID}", cfg.AppointmentsHandler.Update)
			staff.Delete("/{appointmentID}", cfg.AppointmentsHandler.Delete)
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "receptionist",
	})
}
