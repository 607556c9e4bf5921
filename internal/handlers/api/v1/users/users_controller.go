package users

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ecochamps/internal/response"
	"ecochamps/internal/services"
)

// UserController handles user and leaderboard API endpoints
type UserController struct {
	userService  services.UserService
	statsService services.StatsService
	builder      *response.Builder
	logger       *zap.Logger
}

// NewUserController creates a new user API controller
func NewUserController(
	userService services.UserService,
	statsService services.StatsService,
	builder *response.Builder,
	logger *zap.Logger,
) *UserController {
	return &UserController{
		userService:  userService,
		statsService: statsService,
		builder:      builder,
		logger:       logger,
	}
}

// List handles GET /api/v1/users
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	users, err := c.userService.ListUsers(r.Context())
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, users)
}

// Get handles GET /api/v1/users/{id}
func (c *UserController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	user, err := c.userService.GetUserByID(r.Context(), id)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, user)
}

// Stats handles GET /api/v1/users/{id}/stats
func (c *UserController) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	stats, err := c.statsService.GetUserStats(r.Context(), id)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, stats)
}

// Leaderboard handles GET /api/v1/leaderboard
func (c *UserController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.builder.WriteError(w, r, services.NewValidationError("limit must be between 1 and 100", err))
			return
		}
		limit = parsed
	}

	entries, err := c.statsService.GetLeaderboard(r.Context(), limit)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, entries)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
