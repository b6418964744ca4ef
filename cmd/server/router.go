package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/lexibox/internal/api"
	apiMiddleware "github.com/phrazzld/lexibox/internal/api/middleware"
	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/rs/cors"
)

// requestTimeout bounds every request handled by the API router.
const requestTimeout = 30 * time.Second

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   app.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	clock := api.Clock(app.clock)
	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, tokenLifetime, clock, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	reviewHandler := api.NewReviewHandler(app.cardReviewService, clock, app.logger)
	cardHandler := api.NewCardHandler(app.cardService, clock, app.logger)
	accountHandler := api.NewAccountHandler(app.statsService, app.userService, clock, app.logger)
	importHandler := api.NewImportHandler(app.importService, clock, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/reviews", reviewHandler.SubmitReview)
			r.Get("/reviews/next", reviewHandler.NextReview)
			r.Get("/reviews/scheduled", reviewHandler.ScheduledReviews)
			r.Get("/reviews/summary", reviewHandler.ReviewSummary)

			r.Post("/cards", cardHandler.CreateCard)
			r.Get("/cards/{id}", cardHandler.GetCard)
			r.Put("/cards/{id}", cardHandler.UpdateCard)
			r.Post("/cards/{id}/archive", cardHandler.ArchiveCard)
			r.Post("/cards/{id}/unarchive", cardHandler.UnarchiveCard)
			r.Delete("/cards/{id}", cardHandler.DeleteCard)

			r.Get("/stats", accountHandler.GetStats)
			r.Put("/settings", accountHandler.UpdateSettings)

			r.Post("/imports", importHandler.CreateSession)
			r.Get("/imports/{id}", importHandler.GetSession)
			r.Post("/imports/{id}/generate", importHandler.Generate)
			r.Post("/imports/{id}/proposals", importHandler.RecordProposals)
			r.Get("/imports/{id}/proposals", importHandler.ListProposals)
			r.Post("/imports/{id}/accept", importHandler.Accept)
			r.Post("/imports/{id}/reject", importHandler.Reject)
			r.Patch("/proposals/{id}", importHandler.SetSelection)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, api.HealthResponse{Status: "ok"})
	})

	return r
}
