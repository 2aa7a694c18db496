package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medibook/medibook-platform/internal/chat"
	"github.com/medibook/medibook-platform/internal/http/handlers"
	httpmiddleware "github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	ChatHandler      *chat.Handler
	DirectoryHandler *handlers.DirectoryHandler
	SymptomsHandler  *handlers.SymptomsHandler
	UploadHandler    *handlers.UploadHandler

	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	UserJWTSecret      string

	// UploadDir, when set, is served read-only under /uploads/ for
	// disk-stored attachments.
	UploadDir string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		// Chat transport authenticates at the protocol level, not per-request.
		if cfg.ChatHandler != nil {
			public.Get("/ws/chat", cfg.ChatHandler.ServeHTTP)
		}
		if cfg.UploadDir != "" {
			fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
			public.Get("/uploads/*", fs.ServeHTTP)
		}
	})

	// REST API. JWT enforcement is active only when a secret is configured.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.UserJWT(cfg.UserJWTSecret))

		if cfg.DirectoryHandler != nil {
			api.Get("/doctors", cfg.DirectoryHandler.ListDoctors)
			api.Get("/doctors/{id}", cfg.DirectoryHandler.GetDoctor)
			api.Get("/appointments", cfg.DirectoryHandler.ListAppointments)
			api.Post("/appointments", cfg.DirectoryHandler.CreateAppointment)
			api.Get("/notifications", cfg.DirectoryHandler.ListNotifications)
			api.Patch("/notifications/{id}/read", cfg.DirectoryHandler.MarkNotificationRead)
		}
		if cfg.SymptomsHandler != nil {
			api.Get("/symptoms", cfg.SymptomsHandler.ListSymptoms)
			api.Post("/symptom-checker/recommend-specialists", cfg.SymptomsHandler.RecommendSpecialists)
			api.Post("/symptom-checker/identify", cfg.SymptomsHandler.IdentifyDisease)
		}
		if cfg.UploadHandler != nil {
			api.With(httpmiddleware.RateLimit(2, 10)).Post("/chat/upload", cfg.UploadHandler.Upload)
		}
	})

	return r
}
