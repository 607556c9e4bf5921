package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ecochamps/internal/database"
	"ecochamps/internal/handlers/api/v1/auth"
	"ecochamps/internal/handlers/api/v1/badges"
	"ecochamps/internal/handlers/api/v1/challenges"
	"ecochamps/internal/handlers/api/v1/logs"
	"ecochamps/internal/handlers/api/v1/users"
	"ecochamps/internal/middleware"
	"ecochamps/internal/response"
	"ecochamps/internal/services"
	"ecochamps/internal/utils"
)

// New wires every API route and middleware into the main handler.
func New(
	svc *services.ServiceCollection,
	tokens *middleware.TokenIssuer,
	images utils.ImageStorage,
	builder *response.Builder,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(builder, logger))
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	authController := auth.NewAuthController(svc.UserService, tokens, builder, logger)
	userController := users.NewUserController(svc.UserService, svc.StatsService, builder, logger)
	logController := logs.NewLogController(svc.WasteLogService, images, builder, logger)
	challengeController := challenges.NewChallengeController(svc.ChallengeService, builder, logger)
	badgeController := badges.NewBadgeController(svc.BadgeService, builder, logger)

	r.Get("/health", healthHandler(svc, builder))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authController.Signup)
			r.Post("/login", authController.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userController.List)
			r.Get("/{id}", userController.Get)
			r.Get("/{id}/stats", userController.Stats)
			r.Get("/{id}/logs", logController.ListForUser)
		})

		r.Get("/leaderboard", userController.Leaderboard)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/{id}", logController.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(tokens, builder))
				r.Post("/", logController.Submit)
				r.Delete("/{id}", logController.Delete)
			})
		})

		r.Route("/challenges", func(r chi.Router) {
			r.With(middleware.OptionalAuth(tokens)).Get("/", challengeController.List)
			r.Get("/{id}", challengeController.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(tokens, builder))
				r.Post("/", challengeController.Create)
				r.Post("/{id}/join", challengeController.Join)
				r.Post("/{id}/complete", challengeController.Complete)
			})
		})

		r.Route("/badges", func(r chi.Router) {
			r.Get("/", badgeController.List)
			r.With(middleware.RequireAuth(tokens, builder)).Post("/", badgeController.Create)
		})
	})

	return r
}

// healthHandler reports database and cache health.
func healthHandler(svc *services.ServiceCollection, builder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}

		if svc.DBManager != nil {
			db := svc.DBManager.Health(r.Context())
			status["database"] = db.Status
			if db.Status != database.StatusHealthy {
				status["status"] = "degraded"
			}
		}
		if svc.Cache != nil {
			if err := svc.Cache.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["cache"] = err.Error()
			} else {
				status["cache"] = "ok"
			}
		}

		if status["status"] != "ok" {
			builder.WriteError(w, r, services.NewServiceUnavailableError("dependencies unhealthy"))
			return
		}
		builder.WriteSuccess(w, r, status)
	}
}
