package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"healthgate/internal/config"
	"healthgate/internal/dashboard"
	"healthgate/internal/partners"
	"healthgate/internal/session"
	"healthgate/internal/upstream"
)

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, sessions *session.Service, api *upstream.Client, dashboards *dashboard.Service, marketplace *partners.Service, google googleAuthenticator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	sessionHandler := NewSessionHandler(sessions, cfg.Environment, cfg.SessionTTL, logger)
	dashboardHandler := NewDashboardHandler(dashboards, sessions, api, logger)
	partnerHandler := NewPartnerHandler(marketplace, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Status)
			r.Post("/login", sessionHandler.Login)
			r.Post("/signup", sessionHandler.Signup)
			r.Delete("/", sessionHandler.Logout)
		})

		if cfg.GoogleLoginEnabled() {
			oauthHandler := NewOAuthHandler(google, sessions, cfg.FrontendURL, cfg.Environment, cfg.SessionTTL, logger)
			r.Route("/auth/google", func(r chi.Router) {
				r.Get("/", oauthHandler.InitiateGoogle)
				r.Get("/callback", oauthHandler.CallbackGoogle)
			})
		} else {
			logger.Warn("google login disabled; GOOGLE_CLIENT_ID not configured")
		}

		r.Group(func(r chi.Router) {
			r.Use(newSessionMiddleware(sessions, logger))

			r.Get("/dashboard", dashboardHandler.Overview)
			r.Post("/food", dashboardHandler.LogFood)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", dashboardHandler.Profile)
				r.Put("/", dashboardHandler.UpdateProfile)
			})

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", dashboardHandler.Challenges)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/participants", dashboardHandler.Participants)
					r.Post("/join", dashboardHandler.JoinChallenge)
					r.Put("/progress", dashboardHandler.UpdateProgress)
				})
			})

			r.Route("/partners", func(r chi.Router) {
				r.Get("/", partnerHandler.Marketplace)
				r.Post("/use-discount", partnerHandler.UseDiscount)
			})
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
