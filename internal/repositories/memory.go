package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecochamps/internal/models"
)

// MemoryStore is an in-memory backing store for every repository interface.
// It drives the service tests and local development without Postgres. All
// mutations run under one mutex, which gives the same atomicity guarantees
// the SQL repositories get from transactions: a failed operation leaves the
// store untouched, and point adjustments never lose concurrent updates.
//
// The store itself is not a repository; use Users(), Logs(), Challenges()
// and Badges() to obtain views that satisfy the respective interfaces.
type MemoryStore struct {
	mu sync.Mutex

	users      map[int64]*models.User
	logs       map[int64]*models.WasteLogEntry
	challenges map[int64]*models.Challenge
	badges     map[int64]*models.Badge

	userBadges   map[int64][]string       // userID -> badge names, award order
	participants map[int64]map[int64]bool // challengeID -> userID set
	completions  map[int64]map[int64]bool // challengeID -> userID set

	nextUserID      int64
	nextLogID       int64
	nextChallengeID int64
	nextBadgeID     int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]*models.User),
		logs:         make(map[int64]*models.WasteLogEntry),
		challenges:   make(map[int64]*models.Challenge),
		badges:       make(map[int64]*models.Badge),
		userBadges:   make(map[int64][]string),
		participants: make(map[int64]map[int64]bool),
		completions:  make(map[int64]map[int64]bool),
	}
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() UserRepository { return &memoryUserRepo{s} }

// Logs returns the waste log repository view of the store.
func (s *MemoryStore) Logs() WasteLogRepository { return &memoryLogRepo{s} }

// Challenges returns the challenge repository view of the store.
func (s *MemoryStore) Challenges() ChallengeRepository { return &memoryChallengeRepo{s} }

// Badges returns the badge catalog view of the store.
func (s *MemoryStore) Badges() BadgeRepository { return &memoryBadgeRepo{s} }

type memoryUserRepo struct{ s *MemoryStore }
type memoryLogRepo struct{ s *MemoryStore }
type memoryChallengeRepo struct{ s *MemoryStore }
type memoryBadgeRepo struct{ s *MemoryStore }

var (
	_ UserRepository      = (*memoryUserRepo)(nil)
	_ WasteLogRepository  = (*memoryLogRepo)(nil)
	_ ChallengeRepository = (*memoryChallengeRepo)(nil)
	_ BadgeRepository     = (*memoryBadgeRepo)(nil)
)

// ===============================
// USER REPOSITORY
// ===============================

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotUser(id), nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, user := range s.users {
		if user.Email == email {
			return s.snapshotUser(id), nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) List(ctx context.Context) ([]*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for id := range s.users {
		users = append(users, s.snapshotUser(id))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (r *memoryUserRepo) AddPoints(ctx context.Context, userID, delta int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPointsLocked(userID, delta)
}

func (r *memoryUserRepo) ApplyCompletionReward(ctx context.Context, userID int64, badge string, reward int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addPointsLocked(userID, reward); err != nil {
		return err
	}
	s.addBadgeLocked(userID, badge)
	return nil
}

func (r *memoryUserRepo) GetBadges(ctx context.Context, userID int64) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.userBadges[userID]...), nil
}

func (r *memoryUserRepo) GetJoinedChallengeIDs(ctx context.Context, userID int64) ([]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinedIDsLocked(userID), nil
}

func (r *memoryUserRepo) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].EcoPoints != users[j].EcoPoints {
			return users[i].EcoPoints > users[j].EcoPoints
		}
		return users[i].ID < users[j].ID
	})

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	entries := make([]*models.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:      i + 1,
			UserID:    user.ID,
			Name:      user.Name,
			EcoPoints: user.EcoPoints,
			Badges:    append([]string{}, s.userBadges[user.ID]...),
		})
	}
	return entries, nil
}

// ===============================
// WASTE LOG REPOSITORY
// ===============================

func (r *memoryLogRepo) Create(ctx context.Context, entry *models.WasteLogEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	// Credit the owner first so a missing user leaves no orphan log,
	// matching the SQL implementation's transaction ordering.
	if err := s.addPointsLocked(entry.UserID, entry.PointsAwarded); err != nil {
		return err
	}

	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now()
	}

	clone := *entry
	s.logs[entry.ID] = &clone
	return nil
}

func (r *memoryLogRepo) Delete(ctx context.Context, id int64) (*models.WasteLogEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.logs[id]
	if !ok {
		return nil, ErrLogNotFound
	}
	delete(s.logs, id)

	// Compensating adjustment; the owner may have been deleted already.
	if _, ok := s.users[entry.UserID]; ok {
		s.users[entry.UserID].EcoPoints -= entry.PointsAwarded
		s.users[entry.UserID].UpdatedAt = time.Now()
	}

	clone := *entry
	return &clone, nil
}

func (r *memoryLogRepo) GetByID(ctx context.Context, id int64) (*models.WasteLogEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.logs[id]
	if !ok {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (r *memoryLogRepo) ListByUser(ctx context.Context, userID int64) ([]*models.WasteLogEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*models.WasteLogEntry, 0)
	for _, entry := range s.logs {
		if entry.UserID == userID {
			clone := *entry
			entries = append(entries, &clone)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LoggedAt.Equal(entries[j].LoggedAt) {
			return entries[i].LoggedAt.After(entries[j].LoggedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// ===============================
// CHALLENGE REPOSITORY
// ===============================

func (r *memoryChallengeRepo) Create(ctx context.Context, challenge *models.Challenge) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextChallengeID++
	challenge.ID = s.nextChallengeID
	challenge.CreatedAt = time.Now()

	clone := *challenge
	clone.Tasks = append([]string{}, challenge.Tasks...)
	s.challenges[challenge.ID] = &clone
	return nil
}

func (r *memoryChallengeRepo) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotChallenge(id), nil
}

func (r *memoryChallengeRepo) List(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	challenges := make([]*models.Challenge, 0, len(s.challenges))
	for id, challenge := range s.challenges {
		if activeOnly {
			if !challenge.IsActive {
				continue
			}
			if !challenge.StartDate.IsZero() && challenge.StartDate.After(now) {
				continue
			}
			if !challenge.EndDate.IsZero() && challenge.EndDate.Before(now) {
				continue
			}
		}
		challenges = append(challenges, s.snapshotChallenge(id))
	}
	sort.Slice(challenges, func(i, j int) bool { return challenges[i].ID > challenges[j].ID })
	return challenges, nil
}

func (r *memoryChallengeRepo) AddParticipant(ctx context.Context, challengeID, userID int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[challengeID]; !ok {
		return false, ErrChallengeNotFound
	}
	return s.addToSetLocked(s.participants, challengeID, userID), nil
}

func (r *memoryChallengeRepo) MarkCompleted(ctx context.Context, challengeID, userID int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[challengeID]; !ok {
		return false, ErrChallengeNotFound
	}
	first := s.addToSetLocked(s.completions, challengeID, userID)
	if first {
		// Completing implies membership.
		s.addToSetLocked(s.participants, challengeID, userID)
	}
	return first, nil
}

func (r *memoryChallengeRepo) ListCompletedBy(ctx context.Context, userID int64) ([]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0)
	for challengeID, set := range s.completions {
		if set[userID] {
			ids = append(ids, challengeID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ===============================
// BADGE REPOSITORY
// ===============================

func (r *memoryBadgeRepo) Create(ctx context.Context, badge *models.Badge) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBadgeID++
	badge.ID = s.nextBadgeID
	badge.CreatedAt = time.Now()

	clone := *badge
	s.badges[badge.ID] = &clone
	return nil
}

func (r *memoryBadgeRepo) GetByName(ctx context.Context, name string) (*models.Badge, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, badge := range s.badges {
		if badge.Name == name {
			clone := *badge
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memoryBadgeRepo) List(ctx context.Context) ([]*models.Badge, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	badges := make([]*models.Badge, 0, len(s.badges))
	for _, badge := range s.badges {
		clone := *badge
		badges = append(badges, &clone)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].ID < badges[j].ID })
	return badges, nil
}

// ===============================
// SHARED HELPERS (caller holds mu)
// ===============================

func (s *MemoryStore) addPointsLocked(userID, delta int64) error {
	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.EcoPoints += delta
	user.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) addBadgeLocked(userID int64, badge string) {
	for _, existing := range s.userBadges[userID] {
		if existing == badge {
			return
		}
	}
	s.userBadges[userID] = append(s.userBadges[userID], badge)
}

func (s *MemoryStore) addToSetLocked(sets map[int64]map[int64]bool, key, member int64) bool {
	set, ok := sets[key]
	if !ok {
		set = make(map[int64]bool)
		sets[key] = set
	}
	if set[member] {
		return false
	}
	set[member] = true
	return true
}

func (s *MemoryStore) joinedIDsLocked(userID int64) []int64 {
	ids := make([]int64, 0)
	for challengeID, set := range s.participants {
		if set[userID] {
			ids = append(ids, challengeID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *MemoryStore) snapshotUser(id int64) *models.User {
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	clone := *user
	clone.Badges = append([]string{}, s.userBadges[id]...)
	clone.JoinedIDs = s.joinedIDsLocked(id)

	logIDs := make([]int64, 0)
	for logID, entry := range s.logs {
		if entry.UserID == id {
			logIDs = append(logIDs, logID)
		}
	}
	sort.Slice(logIDs, func(i, j int) bool { return logIDs[i] < logIDs[j] })
	clone.LogIDs = logIDs
	return &clone
}

func (s *MemoryStore) snapshotChallenge(id int64) *models.Challenge {
	challenge, ok := s.challenges[id]
	if !ok {
		return nil
	}
	clone := *challenge
	clone.Tasks = append([]string{}, challenge.Tasks...)

	clone.Participants = make([]int64, 0)
	for userID := range s.participants[id] {
		clone.Participants = append(clone.Participants, userID)
	}
	sort.Slice(clone.Participants, func(i, j int) bool { return clone.Participants[i] < clone.Participants[j] })

	clone.CompletedBy = make([]int64, 0)
	for userID := range s.completions[id] {
		clone.CompletedBy = append(clone.CompletedBy, userID)
	}
	sort.Slice(clone.CompletedBy, func(i, j int) bool { return clone.CompletedBy[i] < clone.CompletedBy[j] })
	return &clone
}
