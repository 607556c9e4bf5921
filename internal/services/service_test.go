package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ecochamps/internal/cache"
	"ecochamps/internal/config"
	"ecochamps/internal/events"
	"ecochamps/internal/models"
	"ecochamps/internal/repositories"
)

func newTestServices(t *testing.T) *ServiceCollection {
	t.Helper()

	logger := zap.NewNop()
	testCache := cache.NewMemoryCache(&config.CacheConfig{
		Provider:        "memory",
		TTL:             time.Minute,
		MaxKeys:         1000,
		CleanupInterval: time.Minute,
	}, logger)
	t.Cleanup(func() { _ = testCache.Close() })

	bus := events.NewInMemoryEventBus(logger)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	return NewMemoryServiceCollection(repositories.NewMemoryStore(), testCache, bus, logger)
}

func createTestUser(t *testing.T, svc *ServiceCollection, name, email string) *models.User {
	t.Helper()
	user, err := svc.UserService.CreateUser(context.Background(), &CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	return user
}

// ===============================
// USER SERVICE
// ===============================

func TestCreateUser_StartsEmpty(t *testing.T) {
	svc := newTestServices(t)

	user := createTestUser(t, svc, "Amina", "amina@example.com")

	assert.NotZero(t, user.ID)
	assert.Equal(t, int64(0), user.EcoPoints)
	assert.Empty(t, user.Badges)
	assert.Empty(t, user.PasswordHash)
}

func TestCreateUser_UsesConfiguredBCryptCost(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	users := NewUserService(store.Users(), cache.NewMemoryCache(&config.CacheConfig{
		Provider: "memory",
		TTL:      time.Minute,
		MaxKeys:  100,
	}, zap.NewNop()), events.NewInMemoryEventBus(zap.NewNop()), 6, zap.NewNop())

	_, err := users.CreateUser(ctx, &CreateUserRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Password: "a long enough password",
	})
	require.NoError(t, err)

	stored, err := store.Users().GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 6, cost)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc := newTestServices(t)
	createTestUser(t, svc, "Amina", "amina@example.com")

	_, err := svc.UserService.CreateUser(context.Background(), &CreateUserRequest{
		Name:     "Impostor",
		Email:    "amina@example.com",
		Password: "another password here",
	})
	assert.True(t, IsConflict(err))
}

func TestAuthenticate(t *testing.T) {
	svc := newTestServices(t)
	createTestUser(t, svc, "Amina", "amina@example.com")

	user, err := svc.UserService.Authenticate(context.Background(), &LoginRequest{
		Email:    "amina@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.UserService.Authenticate(context.Background(), &LoginRequest{
		Email:    "amina@example.com",
		Password: "wrong password entirely",
	})
	assert.True(t, IsUnauthorized(err))

	// Unknown email looks identical to a wrong password.
	_, err = svc.UserService.Authenticate(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse battery staple",
	})
	assert.True(t, IsUnauthorized(err))
}

// ===============================
// WASTE LOG SERVICE
// ===============================

func TestSubmitLog_CreditsPointsAndStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	entry, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Recycled",
		Quantity:      10,
		PointsAwarded: 20,
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	got, err := svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.EcoPoints)

	stats, err := svc.StatsService.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stats.EcoPoints)
	assert.Equal(t, 1, stats.LogCount)
	assert.InDelta(t, 5.0, stats.CO2Saved, 1e-9)
	assert.InDelta(t, 10.0, stats.WasteDiverted, 1e-9)
	assert.InDelta(t, 10.0, stats.WasteBreakdown[models.CategoryRecycled], 1e-9)
}

func TestSubmitLog_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	_, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Unobtainium",
		Quantity:      1,
		PointsAwarded: 5,
	})
	assert.True(t, IsValidation(err))

	_, err = svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Plastic",
		Quantity:      0,
		PointsAwarded: 5,
	})
	assert.True(t, IsValidation(err))

	_, err = svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Plastic",
		Quantity:      -2,
		PointsAwarded: 5,
	})
	assert.True(t, IsValidation(err))
}

func TestSubmitLog_UnknownUser(t *testing.T) {
	svc := newTestServices(t)

	_, err := svc.WasteLogService.SubmitLog(context.Background(), &SubmitLogRequest{
		UserID:        999,
		Category:      "Glass",
		Quantity:      1,
		PointsAwarded: 2,
	})
	assert.True(t, IsNotFound(err))
}

func TestDeleteLog_RestoresBaseline(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	entry, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Plastic",
		Quantity:      4,
		PointsAwarded: 12,
	})
	require.NoError(t, err)

	require.NoError(t, svc.WasteLogService.DeleteLog(ctx, entry.ID, user.ID))

	got, err := svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.EcoPoints)

	stats, err := svc.StatsService.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.LogCount)
	assert.Zero(t, stats.WasteDiverted)

	err = svc.WasteLogService.DeleteLog(ctx, entry.ID, user.ID)
	assert.True(t, IsNotFound(err))
}

func TestDeleteLog_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	owner := createTestUser(t, svc, "Amina", "amina@example.com")
	other := createTestUser(t, svc, "Brian", "brian@example.com")

	entry, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        owner.ID,
		Category:      "Metal",
		Quantity:      2,
		PointsAwarded: 6,
	})
	require.NoError(t, err)

	err = svc.WasteLogService.DeleteLog(ctx, entry.ID, other.ID)
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", svcErr.Type)

	// The entry and its points survive the rejected attempt.
	got, err := svc.UserService.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.EcoPoints)
}

func TestDeleteLog_ImmutablePointsSurviveRateChanges(t *testing.T) {
	// The reversal uses the entry's captured pointsAwarded, not whatever a
	// fresh submission of the same category would award today.
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	old, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Paper",
		Quantity:      3,
		PointsAwarded: 9,
	})
	require.NoError(t, err)

	// Same category, different client-side rate.
	_, err = svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Paper",
		Quantity:      3,
		PointsAwarded: 30,
	})
	require.NoError(t, err)

	require.NoError(t, svc.WasteLogService.DeleteLog(ctx, old.ID, user.ID))

	got, err := svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), got.EcoPoints)
}

func TestListLogsForUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	var lastID int64
	for i := 0; i < 3; i++ {
		entry, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
			UserID:        user.ID,
			Category:      "Organic",
			Quantity:      1,
			PointsAwarded: 1,
		})
		require.NoError(t, err)
		lastID = entry.ID
	}

	logs, err := svc.WasteLogService.ListLogsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, lastID, logs[0].ID)
}

// ===============================
// CHALLENGE SERVICE
// ===============================

func createTestChallenge(t *testing.T, svc *ServiceCollection, title string, reward int64) *models.Challenge {
	t.Helper()
	challenge, err := svc.ChallengeService.CreateChallenge(context.Background(), &CreateChallengeRequest{
		Title:        title,
		Description:  "test challenge",
		Tasks:        []string{"do the thing"},
		RewardPoints: reward,
		IsActive:     true,
	})
	require.NoError(t, err)
	return challenge
}

func TestJoinChallenge_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")
	challenge := createTestChallenge(t, svc, "Zero Waste Week", 50)

	require.NoError(t, svc.ChallengeService.JoinChallenge(ctx, challenge.ID, user.ID))
	require.NoError(t, svc.ChallengeService.JoinChallenge(ctx, challenge.ID, user.ID))

	got, err := svc.ChallengeService.GetChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{user.ID}, got.Participants)

	profile, err := svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{challenge.ID}, profile.JoinedIDs)
	assert.Equal(t, int64(0), profile.EcoPoints)
}

func TestCompleteChallenge_AwardsOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")
	challenge := createTestChallenge(t, svc, "Plastic-Free July", 50)

	require.NoError(t, svc.ChallengeService.JoinChallenge(ctx, challenge.ID, user.ID))

	result, err := svc.ChallengeService.CompleteChallenge(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, int64(50), result.PointsAwarded)
	assert.Equal(t, "Plastic-Free July", result.BadgeAwarded)

	got, err := svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.EcoPoints)
	assert.Equal(t, []string{"Plastic-Free July"}, got.Badges)

	// Repeat completion acknowledges without a second award.
	result, err = svc.ChallengeService.CompleteChallenge(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
	assert.Zero(t, result.PointsAwarded)

	got, err = svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.EcoPoints)
	assert.Equal(t, []string{"Plastic-Free July"}, got.Badges)
}

func TestCompleteChallenge_WithoutJoiningBackfillsMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")
	challenge := createTestChallenge(t, svc, "Compost Sprint", 25)

	result, err := svc.ChallengeService.CompleteChallenge(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)

	got, err := svc.ChallengeService.GetChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{user.ID}, got.Participants)
	assert.Equal(t, []int64{user.ID}, got.CompletedBy)
}

func TestListChallengesForUser_Status(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	notJoined := createTestChallenge(t, svc, "Bike to Work", 10)
	joined := createTestChallenge(t, svc, "Zero Waste Week", 10)
	completed := createTestChallenge(t, svc, "Compost Month", 10)

	require.NoError(t, svc.ChallengeService.JoinChallenge(ctx, joined.ID, user.ID))
	_, err := svc.ChallengeService.CompleteChallenge(ctx, completed.ID, user.ID)
	require.NoError(t, err)

	views, err := svc.ChallengeService.ListChallengesForUser(ctx, user.ID, false)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byID := make(map[int64]models.ChallengeStatus)
	for _, view := range views {
		byID[view.Challenge.ID] = view.Status
	}
	assert.Equal(t, models.StatusNotJoined, byID[notJoined.ID])
	assert.Equal(t, models.StatusJoined, byID[joined.ID])
	assert.Equal(t, models.StatusCompleted, byID[completed.ID])
}

func TestCompleteChallenge_MissingChallenge(t *testing.T) {
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	_, err := svc.ChallengeService.CompleteChallenge(context.Background(), 42, user.ID)
	assert.True(t, IsNotFound(err))
}

// ===============================
// STATS AND LEADERBOARD
// ===============================

func TestLeaderboard_PointsDescending(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	a := createTestUser(t, svc, "Ada", "a@example.com")
	b := createTestUser(t, svc, "Ben", "b@example.com")
	c := createTestUser(t, svc, "Cleo", "c@example.com")

	for user, points := range map[*models.User]int64{a: 30, b: 10, c: 20} {
		_, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
			UserID:        user.ID,
			Category:      "Plastic",
			Quantity:      1,
			PointsAwarded: points,
		})
		require.NoError(t, err)
	}

	entries, err := svc.StatsService.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int64{30, 20, 10}, []int64{entries[0].EcoPoints, entries[1].EcoPoints, entries[2].EcoPoints})
	assert.Equal(t, a.ID, entries[0].UserID)
	assert.Equal(t, c.ID, entries[1].UserID)
	assert.Equal(t, b.ID, entries[2].UserID)
	assert.Equal(t, 1, entries[0].Rank)

	// No credential material in the projection.
	for _, entry := range entries {
		assert.NotEmpty(t, entry.Name)
	}
}

func TestLeaderboard_ReflectsDeletionAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	entry, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID:        user.ID,
		Category:      "Glass",
		Quantity:      1,
		PointsAwarded: 40,
	})
	require.NoError(t, err)

	before, err := svc.StatsService.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, int64(40), before[0].EcoPoints)

	require.NoError(t, svc.WasteLogService.DeleteLog(ctx, entry.ID, user.ID))

	after, err := svc.StatsService.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after[0].EcoPoints)
}

func TestPointsInvariant_SumOfLogsPlusRewards(t *testing.T) {
	// eco points always equal the sum of pointsAwarded over live logs plus
	// the rewards of completed challenges, across an arbitrary sequence of
	// submits, deletes, joins and completions.
	ctx := context.Background()
	svc := newTestServices(t)
	user := createTestUser(t, svc, "Amina", "amina@example.com")

	first, err := svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID: user.ID, Category: "Recycled", Quantity: 10, PointsAwarded: 20,
	})
	require.NoError(t, err)
	_, err = svc.WasteLogService.SubmitLog(ctx, &SubmitLogRequest{
		UserID: user.ID, Category: "Organic", Quantity: 2, PointsAwarded: 4,
	})
	require.NoError(t, err)

	challenge := createTestChallenge(t, svc, "Zero Waste Week", 50)
	require.NoError(t, svc.ChallengeService.JoinChallenge(ctx, challenge.ID, user.ID))
	_, err = svc.ChallengeService.CompleteChallenge(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	_, err = svc.ChallengeService.CompleteChallenge(ctx, challenge.ID, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.WasteLogService.DeleteLog(ctx, first.ID, user.ID))

	logs, err := svc.WasteLogService.ListLogsForUser(ctx, user.ID)
	require.NoError(t, err)

	var logSum int64
	for _, entry := range logs {
		logSum += entry.PointsAwarded
	}

	got, err := svc.UserService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, logSum+challenge.RewardPoints, got.EcoPoints)
	assert.Equal(t, int64(54), got.EcoPoints)
}

// ===============================
// BADGE CATALOG
// ===============================

func TestBadgeCatalog(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	badge, err := svc.BadgeService.CreateBadge(ctx, &CreateBadgeRequest{
		Name:        "Early Bird",
		Description: "Joined during launch month",
		Condition:   "signup before 2026-02-01",
	})
	require.NoError(t, err)
	assert.NotZero(t, badge.ID)

	_, err = svc.BadgeService.CreateBadge(ctx, &CreateBadgeRequest{Name: "Early Bird"})
	assert.True(t, IsConflict(err))

	badges, err := svc.BadgeService.ListBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "Early Bird", badges[0].Name)
}
