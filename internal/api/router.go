package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fluencykaizen/backend/internal/api/handlers"
	"github.com/fluencykaizen/backend/internal/api/middleware"
	"github.com/fluencykaizen/backend/internal/auth"
	"github.com/fluencykaizen/backend/internal/db"
	"github.com/fluencykaizen/backend/internal/pipeline"
	"github.com/fluencykaizen/backend/internal/project"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, gen *pipeline.Generator, registry *pipeline.Registry, projects *project.Store, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(corsOrigins)))
	r.Use(middleware.MaxBodySize(1 << 20))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	captionsHandler := handlers.NewCaptionsHandler(gen, registry, database, projects)
	runsHandler := handlers.NewRunsHandler(database)
	settingsHandler := handlers.NewSettingsHandler(database)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Auth (public)
		r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Auth
			r.Get("/auth/me", authHandler.Me)

			// Captions
			r.Post("/captions/{projectID}/generate", captionsHandler.Generate)
			r.Post("/captions/runs/{runID}/abort", captionsHandler.Abort)
			r.Get("/captions/{projectID}/{assetName}", captionsHandler.GetCaptions)

			// Run history
			r.Get("/runs", runsHandler.ListRuns)
			r.Get("/runs/{id}", runsHandler.GetRun)

			// Settings
			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings", settingsHandler.UpdateSettings)
		})
	})

	return r
}
