package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/medbook-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medbook-portal/internal/http/middleware"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/internal/tour"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger    *logging.Logger
	Health    *handlers.HealthHandler
	Sessions  *handlers.SessionHandler
	Catalog   *handlers.CatalogHandler
	Booking   *handlers.BookingHandler
	Payments  *handlers.PaymentsHandler
	Countdown *handlers.CountdownHandler
	Chat      *handlers.ChatHandler
	Tour      *handlers.TourHandler

	SessionStore session.Store
	Tours        *tour.Registry
	RateLimiter  *httpmiddleware.RateLimiter

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	SecureCookies      bool
	Now                func() time.Time
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Check)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	requirePatient := httpmiddleware.RequireSession(cfg.SessionStore, session.PortalPatient, cfg.Now)
	optionalPatient := httpmiddleware.OptionalSession(cfg.SessionStore, session.PortalPatient, cfg.Now)
	requireAny := httpmiddleware.RequireSession(cfg.SessionStore, "", cfg.Now)

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.BrowserID(cfg.SecureCookies))
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		if cfg.Sessions != nil {
			api.Route("/session/{portal}", func(s chi.Router) {
				s.Post("/", cfg.Sessions.Save)
				s.Get("/", cfg.Sessions.Get)
				s.Delete("/", cfg.Sessions.Delete)
			})
		}

		if cfg.Catalog != nil {
			api.Get("/specialties", cfg.Catalog.Specialties)
			api.Get("/doctors", cfg.Catalog.Doctors)
		}

		if cfg.Booking != nil {
			api.Get("/doctors/{doctorID}/slots", cfg.Booking.Slots)
			api.Get("/suggestions", cfg.Booking.Suggestions)
			api.With(optionalPatient).Post("/appointments", cfg.Booking.Create)
		}

		if cfg.Payments != nil {
			api.Route("/payments/{appointmentID}", func(p chi.Router) {
				p.Use(requirePatient)
				p.Get("/", cfg.Payments.Get)
				p.Post("/process", cfg.Payments.Process)
				p.Post("/refund", cfg.Payments.Refund)
			})
		}

		if cfg.Countdown != nil {
			api.Get("/holds/countdown", cfg.Countdown.Serve)
		}

		if cfg.Chat != nil {
			api.Route("/chat/{conversationID}", func(c chi.Router) {
				c.Use(requireAny)
				c.Get("/messages", cfg.Chat.List)
				c.Post("/messages", cfg.Chat.Send)
				c.Get("/stream", cfg.Chat.Stream)
			})
		}

		if cfg.Tour != nil && cfg.Tours != nil {
			api.Route("/tour", func(t chi.Router) {
				t.Use(httpmiddleware.Tour(cfg.Tours))
				t.Get("/", cfg.Tour.Status)
				t.Post("/destroy", cfg.Tour.Destroy)
				t.Post("/{name}/start", cfg.Tour.Start)
			})
		}
	})

	return r
}
