package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zapponejosh/lunar-ledger/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/lunar/solar/{date}      solar YYYY-MM-DD -> lunar
//	GET    /api/v1/lunar/lunar/{date}      lunar YYYY-MM-DD (?leap=true) -> solar
//	GET    /api/v1/lunar/years/{year}      month structure of a lunar year
//	GET    /api/v1/lunar/next              ?month=&day=&leap= next occurrence
//	GET    /api/v1/lifeclock               ?birth=&calendar=&leap=&expectancy=
//
//	(X-API-Key)
//	GET    /api/v1/contacts
//	POST   /api/v1/contacts
//	GET    /api/v1/contacts/upcoming       ?days=
//	GET    /api/v1/contacts/{id}
//	PUT    /api/v1/contacts/{id}
//	DELETE /api/v1/contacts/{id}
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		middleware.RealIP,
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/lunar", func(r chi.Router) {
			r.Get("/solar/{date}", handlers.ConvertSolarToLunar)
			r.Get("/lunar/{date}", handlers.ConvertLunarToSolar)
			r.Get("/years/{year}", handlers.GetLunarYear)
			r.Get("/next", handlers.GetNextOccurrence)
		})
		r.Get("/lifeclock", handlers.GetLifeClock)

		// ======================================================================
		// Contacts ledger (authenticated)
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg, logger))

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", handlers.ListContacts)
				r.Post("/", handlers.CreateContact)
				r.Get("/upcoming", handlers.GetUpcomingBirthdays)
				r.Get("/{id}", handlers.GetContact)
				r.Put("/{id}", handlers.UpdateContact)
				r.Delete("/{id}", handlers.DeleteContact)
			})
		})
	})

	return r
}
