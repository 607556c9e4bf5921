package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"ecochamps/internal/middleware"
	"ecochamps/internal/models"
	"ecochamps/internal/response"
	"ecochamps/internal/services"
)

// AuthController handles signup and login endpoints
type AuthController struct {
	userService services.UserService
	tokens      *middleware.TokenIssuer
	builder     *response.Builder
	logger      *zap.Logger
}

// NewAuthController creates a new auth API controller
func NewAuthController(
	userService services.UserService,
	tokens *middleware.TokenIssuer,
	builder *response.Builder,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		userService: userService,
		tokens:      tokens,
		builder:     builder,
		logger:      logger,
	}
}

// authPayload pairs an account with its freshly issued token.
type authPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/v1/auth/signup
func (c *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	user, err := c.userService.CreateUser(r.Context(), &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	token, err := c.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.logger.Error("Failed to issue token after signup", zap.Error(err), zap.Int64("user_id", user.ID))
		c.builder.WriteError(w, r, services.NewInternalError("failed to issue token"))
		return
	}

	c.builder.WriteCreated(w, r, &authPayload{Token: token, User: user})
}

// Login handles POST /api/v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	user, err := c.userService.Authenticate(r.Context(), &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	token, err := c.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.logger.Error("Failed to issue token after login", zap.Error(err), zap.Int64("user_id", user.ID))
		c.builder.WriteError(w, r, services.NewInternalError("failed to issue token"))
		return
	}

	c.builder.WriteSuccess(w, r, &authPayload{Token: token, User: user})
}
