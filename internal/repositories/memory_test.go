package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecochamps/internal/models"
)

func seedUser(t *testing.T, repo UserRepository, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestMemoryUserRepo_DuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	users := store.Users()

	seedUser(t, users, "Amina", "amina@example.com")

	err := users.Create(context.Background(), &models.User{Name: "Other", Email: "amina@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryUserRepo_GetByIDMissing(t *testing.T) {
	store := NewMemoryStore()

	user, err := store.Users().GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestMemoryUserRepo_AddPointsConcurrent(t *testing.T) {
	store := NewMemoryStore()
	users := store.Users()
	user := seedUser(t, users, "Amina", "amina@example.com")

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := users.AddPoints(context.Background(), user.ID, 1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), got.EcoPoints)
}

func TestMemoryUserRepo_AddPointsMissingUser(t *testing.T) {
	store := NewMemoryStore()

	err := store.Users().AddPoints(context.Background(), 99, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryLogRepo_CreateCreditsOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store.Users(), "Amina", "amina@example.com")

	entry := &models.WasteLogEntry{
		UserID:        user.ID,
		Category:      models.CategoryRecycled,
		Quantity:      10,
		PointsAwarded: 20,
	}
	require.NoError(t, store.Logs().Create(ctx, entry))
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.LoggedAt.IsZero())

	got, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.EcoPoints)
	assert.Equal(t, []int64{entry.ID}, got.LogIDs)
}

func TestMemoryLogRepo_CreateUnknownUserLeavesNoLog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := &models.WasteLogEntry{UserID: 7, Category: models.CategoryPlastic, Quantity: 1, PointsAwarded: 5}
	err := store.Logs().Create(ctx, entry)
	require.ErrorIs(t, err, ErrUserNotFound)

	logs, err := store.Logs().ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMemoryLogRepo_DeleteReversesCredit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store.Users(), "Amina", "amina@example.com")

	entry := &models.WasteLogEntry{UserID: user.ID, Category: models.CategoryGlass, Quantity: 3, PointsAwarded: 9}
	require.NoError(t, store.Logs().Create(ctx, entry))

	deleted, err := store.Logs().Delete(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, deleted.ID)

	got, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.EcoPoints)
	assert.Empty(t, got.LogIDs)

	_, err = store.Logs().Delete(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestMemoryLogRepo_ListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store.Users(), "Amina", "amina@example.com")

	for i := 0; i < 3; i++ {
		entry := &models.WasteLogEntry{UserID: user.ID, Category: models.CategoryPaper, Quantity: 1, PointsAwarded: 1}
		require.NoError(t, store.Logs().Create(ctx, entry))
	}

	logs, err := store.Logs().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].ID > logs[1].ID && logs[1].ID > logs[2].ID)
}

func TestMemoryChallengeRepo_JoinIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store.Users(), "Amina", "amina@example.com")

	challenge := &models.Challenge{Title: "Zero Waste Week", RewardPoints: 50, IsActive: true}
	require.NoError(t, store.Challenges().Create(ctx, challenge))

	added, err := store.Challenges().AddParticipant(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Challenges().AddParticipant(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := store.Challenges().GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{user.ID}, got.Participants)
}

func TestMemoryChallengeRepo_ActiveFilterDatelessIsUnbounded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	dateless := &models.Challenge{Title: "Evergreen Cleanup", RewardPoints: 10, IsActive: true}
	expired := &models.Challenge{
		Title:        "Last Month Sprint",
		RewardPoints: 10,
		IsActive:     true,
		StartDate:    time.Now().Add(-60 * 24 * time.Hour),
		EndDate:      time.Now().Add(-30 * 24 * time.Hour),
	}
	inactive := &models.Challenge{Title: "Paused Drive", RewardPoints: 10, IsActive: false}
	require.NoError(t, store.Challenges().Create(ctx, dateless))
	require.NoError(t, store.Challenges().Create(ctx, expired))
	require.NoError(t, store.Challenges().Create(ctx, inactive))

	active, err := store.Challenges().List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, dateless.ID, active[0].ID)

	all, err := store.Challenges().List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryChallengeRepo_MarkCompletedOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store.Users(), "Amina", "amina@example.com")

	challenge := &models.Challenge{Title: "Plastic-Free July", RewardPoints: 100, IsActive: true}
	require.NoError(t, store.Challenges().Create(ctx, challenge))

	first, err := store.Challenges().MarkCompleted(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Challenges().MarkCompleted(ctx, challenge.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, again)

	// Completion backfills membership.
	got, err := store.Challenges().GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{user.ID}, got.Participants)
	assert.Equal(t, []int64{user.ID}, got.CompletedBy)
}

func TestMemoryChallengeRepo_ListCompletedByReturnsIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store.Users(), "Amina", "amina@example.com")

	first := &models.Challenge{Title: "Zero Waste Week", RewardPoints: 50, IsActive: true}
	second := &models.Challenge{Title: "Plastic-Free July", RewardPoints: 100, IsActive: true}
	require.NoError(t, store.Challenges().Create(ctx, first))
	require.NoError(t, store.Challenges().Create(ctx, second))

	ids, err := store.Challenges().ListCompletedBy(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = store.Challenges().MarkCompleted(ctx, first.ID, user.ID)
	require.NoError(t, err)
	_, err = store.Challenges().MarkCompleted(ctx, second.ID, user.ID)
	require.NoError(t, err)

	ids, err = store.Challenges().ListCompletedBy(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, ids)
}

func TestMemoryChallengeRepo_MissingChallenge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Challenges().AddParticipant(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = store.Challenges().MarkCompleted(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestMemoryUserRepo_LeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := store.Users()

	a := seedUser(t, users, "A", "a@example.com")
	b := seedUser(t, users, "B", "b@example.com")
	c := seedUser(t, users, "C", "c@example.com")

	require.NoError(t, users.AddPoints(ctx, a.ID, 30))
	require.NoError(t, users.AddPoints(ctx, b.ID, 10))
	require.NoError(t, users.AddPoints(ctx, c.ID, 20))

	entries, err := users.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, []int64{entries[0].UserID, entries[1].UserID, entries[2].UserID})
	assert.Equal(t, []int64{30, 20, 10}, []int64{entries[0].EcoPoints, entries[1].EcoPoints, entries[2].EcoPoints})
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestMemoryUserRepo_LeaderboardTieBrokenByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := store.Users()

	a := seedUser(t, users, "A", "a@example.com")
	b := seedUser(t, users, "B", "b@example.com")

	require.NoError(t, users.AddPoints(ctx, a.ID, 15))
	require.NoError(t, users.AddPoints(ctx, b.ID, 15))

	entries, err := users.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].UserID)
}
