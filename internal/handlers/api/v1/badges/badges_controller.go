package badges

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"ecochamps/internal/response"
	"ecochamps/internal/services"
)

// BadgeController handles badge catalog API endpoints
type BadgeController struct {
	badgeService services.BadgeService
	builder      *response.Builder
	logger       *zap.Logger
}

// NewBadgeController creates a new badge API controller
func NewBadgeController(
	badgeService services.BadgeService,
	builder *response.Builder,
	logger *zap.Logger,
) *BadgeController {
	return &BadgeController{
		badgeService: badgeService,
		builder:      builder,
		logger:       logger,
	}
}

// Create handles POST /api/v1/badges
func (c *BadgeController) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	badge, err := c.badgeService.CreateBadge(r.Context(), &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteCreated(w, r, badge)
}

// List handles GET /api/v1/badges
func (c *BadgeController) List(w http.ResponseWriter, r *http.Request) {
	badges, err := c.badgeService.ListBadges(r.Context())
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, badges)
}
