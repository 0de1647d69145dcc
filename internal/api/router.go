// Package api provides the REST API and Twilio webhooks for the
// softphone backend.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the API router
func NewRouter(deps *Dependencies) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := NewAuthHandler(deps)
	tokenHandler := NewTokenHandler(deps)
	webhookHandler := NewWebhookHandler(deps)
	contactHandler := NewContactHandler(deps)
	recentsHandler := NewRecentsHandler(deps)
	callHandler := NewCallHandler(deps)

	// Health endpoints
	healthHandler := NewHealthHandler("0.1.0", deps)
	r.Get("/health", healthHandler.Health)
	r.Get("/api/health", healthHandler.Health)
	r.Get("/api/ready", healthHandler.Ready)
	r.Get("/api/live", healthHandler.Live)

	// Twilio webhooks (secured by Twilio signature validation)
	r.Route("/webhooks/voice", func(r chi.Router) {
		r.Get("/", webhookHandler.Voice)
		r.Post("/", webhookHandler.Voice)
		r.Post("/status", webhookHandler.VoiceStatus)
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// Telephony credential endpoint (origin checked, rate limited)
		r.Get("/token", tokenHandler.Issue)
		r.Post("/token", tokenHandler.Issue)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(deps))

			r.Get("/me", authHandler.Me)

			// Account status for the settings screen
			r.Get("/system/status", healthHandler.Status)

			// Contacts
			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.List)
				r.Post("/", contactHandler.Create)
				r.Get("/{id}", contactHandler.Get)
				r.Put("/{id}", contactHandler.Update)
				r.Delete("/{id}", contactHandler.Delete)
			})

			// Call history
			r.Get("/recents", recentsHandler.List)

			// Active call control
			r.Route("/call", func(r chi.Router) {
				r.Get("/", callHandler.Get)
				r.Post("/", callHandler.Place)
				r.Delete("/", callHandler.HangUp)
				r.Post("/accept", callHandler.Accept)
				r.Post("/reject", callHandler.Reject)
				r.Put("/mute", callHandler.ToggleMute)
				r.Post("/digits", callHandler.SendDigits)
			})
		})
	})

	// Serve frontend static files
	r.Handle("/*", http.FileServer(http.Dir("./frontend/dist")))

	return r
}
