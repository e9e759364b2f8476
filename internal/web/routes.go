package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civreg/faceid/internal/web/handlers"
	"github.com/civreg/faceid/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	authHandler := handlers.NewAuthHandler(s.deps.Users, sessionManager)
	enrollHandler := handlers.NewEnrollHandler(s.config, s.deps.Extractor, s.deps.Coordinator, s.deps.Citizens)
	verifyHandler := handlers.NewVerifyHandler(s.config, s.deps.Extractor, s.deps.Verifier, s.deps.Citizens)
	citizensHandler := handlers.NewCitizensHandler(s.config, s.deps.Citizens, s.deps.Coordinator)
	usersHandler := handlers.NewUsersHandler(s.deps.Users)
	statsHandler := handlers.NewStatsHandler(s.deps.Repo, s.deps.Citizens, s.deps.Engine, s.deps.Index)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Everything else requires an authenticated operator.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			r.Post("/enroll", enrollHandler.Enroll)
			r.Post("/verify", verifyHandler.Verify)

			r.Get("/citizens", citizensHandler.List)
			r.Get("/citizens/{id}", citizensHandler.Get)
			r.Put("/citizens/{id}", citizensHandler.Update)
			r.Delete("/citizens/{id}", citizensHandler.Delete)

			r.Get("/stats", statsHandler.Get)

			// Operator management is admin only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Get("/users", usersHandler.List)
				r.Post("/users", usersHandler.Create)
				r.Put("/users/{id}", usersHandler.Update)
				r.Delete("/users/{id}", usersHandler.Delete)
			})
		})
	})

	// Enrollment photos for operator review.
	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.config.Uploads.Dir)))
	s.router.With(middleware.RequireAuth(sessionManager)).Get("/uploads/*", uploads.ServeHTTP)
}
