package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ecochamps/internal/cache"
	"ecochamps/internal/events"
	"ecochamps/internal/models"
	"ecochamps/internal/repositories"
	"ecochamps/internal/validation"
)

// userService implements UserService
type userService struct {
	userRepo   repositories.UserRepository
	cache      cache.Cache
	events     events.EventBus
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	cache cache.Cache,
	events events.EventBus,
	bcryptCost int,
	logger *zap.Logger,
) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		userRepo:   userRepo,
		cache:      cache,
		events:     events,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// CreateUser registers a new account with a hashed credential
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create user request", err)
	}

	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, NewConflictError("email already registered", "EMAIL_TAKEN")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, NewInternalError("failed to process password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Badges:       []string{},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, NewConflictError("email already registered", "EMAIL_TAKEN")
		}
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, NewInternalError("failed to create user")
	}

	if err := s.events.Publish(ctx, events.NewUserCreatedEvent(user.ID, user.Email, user.Name)); err != nil {
		s.logger.Warn("Failed to publish user created event", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return user.PublicProfile(), nil
}

// Authenticate checks credentials and returns the account on success.
// A bad email and a bad password produce the same error.
func (s *userService) Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid login request", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("Failed to look up user for login", zap.Error(err))
		return nil, NewInternalError("failed to authenticate")
	}
	if user == nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	return user.PublicProfile(), nil
}

// GetUserByID retrieves a user with short-lived caching
func (s *userService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid user ID", nil)
	}

	cacheKey := fmt.Sprintf("user:%d", id)
	if cached, found := s.cache.Get(ctx, cacheKey); found {
		if user, ok := cached.(*models.User); ok {
			return user, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", id))
		return nil, NewInternalError("failed to get user")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", id)
	}

	profile := user.PublicProfile()
	if err := s.cache.Set(ctx, cacheKey, profile, 30*time.Second); err != nil {
		s.logger.Warn("Failed to cache user", zap.Error(err), zap.Int64("user_id", id))
	}
	return profile, nil
}

// GetUserByEmail retrieves a user by email, including the password hash.
// Intended for internal use; callers exposing the result strip credentials.
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to get user")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", email)
	}
	return user, nil
}

// ListUsers returns all accounts without credential material
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, NewInternalError("failed to list users")
	}

	profiles := make([]*models.User, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.PublicProfile())
	}
	return profiles, nil
}
