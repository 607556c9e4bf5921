package challenges

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ecochamps/internal/contextutils"
	"ecochamps/internal/response"
	"ecochamps/internal/services"
)

// ChallengeController handles challenge API endpoints
type ChallengeController struct {
	challengeService services.ChallengeService
	builder          *response.Builder
	logger           *zap.Logger
}

// NewChallengeController creates a new challenge API controller
func NewChallengeController(
	challengeService services.ChallengeService,
	builder *response.Builder,
	logger *zap.Logger,
) *ChallengeController {
	return &ChallengeController{
		challengeService: challengeService,
		builder:          builder,
		logger:           logger,
	}
}

// Create handles POST /api/v1/challenges
func (c *ChallengeController) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	challenge, err := c.challengeService.CreateChallenge(r.Context(), &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteCreated(w, r, challenge)
}

// List handles GET /api/v1/challenges. With an authenticated caller each
// challenge carries the caller's progress status.
func (c *ChallengeController) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	if userID := contextutils.GetUserID(r.Context()); userID > 0 {
		views, err := c.challengeService.ListChallengesForUser(r.Context(), userID, activeOnly)
		if err != nil {
			c.builder.WriteError(w, r, err)
			return
		}
		c.builder.WriteSuccess(w, r, views)
		return
	}

	challenges, err := c.challengeService.ListChallenges(r.Context(), activeOnly)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, challenges)
}

// Get handles GET /api/v1/challenges/{id}
func (c *ChallengeController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid challenge ID", err))
		return
	}

	challenge, err := c.challengeService.GetChallenge(r.Context(), id)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, challenge)
}

// Join handles POST /api/v1/challenges/{id}/join
func (c *ChallengeController) Join(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid challenge ID", err))
		return
	}

	userID := contextutils.GetUserID(r.Context())
	if err := c.challengeService.JoinChallenge(r.Context(), id, userID); err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteNoContent(w, r)
}

// Complete handles POST /api/v1/challenges/{id}/complete
func (c *ChallengeController) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid challenge ID", err))
		return
	}

	userID := contextutils.GetUserID(r.Context())
	result, err := c.challengeService.CompleteChallenge(r.Context(), id, userID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, result)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
