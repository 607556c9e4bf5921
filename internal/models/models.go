package models

import (
	"time"
)

// ===============================
// WASTE CATEGORIES
// ===============================

// WasteCategory is the closed enumeration of disposal categories. Free-form
// category strings are rejected at the validation layer so a typo can never
// silently fall out of the breakdown or CO2 rules.
type WasteCategory string

const (
	CategoryPlastic    WasteCategory = "Plastic"
	CategoryPaper      WasteCategory = "Paper"
	CategoryGlass      WasteCategory = "Glass"
	CategoryMetal      WasteCategory = "Metal"
	CategoryOrganic    WasteCategory = "Organic"
	CategoryElectronic WasteCategory = "Electronic"
	CategoryRecycled   WasteCategory = "Recycled"
	CategoryComposted  WasteCategory = "Composted"
)

// CO2SavingsPerKg is the estimate factor applied to Recycled quantities only.
const CO2SavingsPerKg = 0.5

// AllCategories lists every recognized category in display order.
func AllCategories() []WasteCategory {
	return []WasteCategory{
		CategoryPlastic, CategoryPaper, CategoryGlass, CategoryMetal,
		CategoryOrganic, CategoryElectronic, CategoryRecycled, CategoryComposted,
	}
}

// categoryLabels maps enum members to UI display labels. Kept separate from
// the enum so renaming a label never changes stored data or the CO2 rule.
var categoryLabels = map[WasteCategory]string{
	CategoryPlastic:    "Plastic",
	CategoryPaper:      "Paper & Cardboard",
	CategoryGlass:      "Glass",
	CategoryMetal:      "Metal",
	CategoryOrganic:    "Organic Waste",
	CategoryElectronic: "E-Waste",
	CategoryRecycled:   "Recycled",
	CategoryComposted:  "Composted",
}

// ParseWasteCategory resolves a raw string to an enum member.
func ParseWasteCategory(s string) (WasteCategory, bool) {
	c := WasteCategory(s)
	_, ok := categoryLabels[c]
	return c, ok
}

// IsValid reports whether the category is a recognized enum member.
func (c WasteCategory) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label for the category.
func (c WasteCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ===============================
// CORE ENTITIES
// ===============================

// User represents an EcoChamps account. EcoPoints is maintained exclusively
// through atomic adds by the accounting engine; it always equals the sum of
// pointsAwarded over the user's live logs plus the rewards of the challenges
// the user completed.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	EcoPoints    int64     `json:"eco_points" db:"eco_points"`
	Badges       []string  `json:"badges"`
	LogIDs       []int64   `json:"log_ids,omitempty"`
	JoinedIDs    []int64   `json:"joined_challenge_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile strips credential material for list/leaderboard responses.
func (u *User) PublicProfile() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// WasteLogEntry is a single recorded disposal event. PointsAwarded is captured
// at creation time and never changes afterwards; later edits to challenge
// rewards or rate tables must not alter historical entries.
type WasteLogEntry struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	Category      WasteCategory `json:"category" db:"category"`
	Quantity      float64       `json:"quantity" db:"quantity"`
	PointsAwarded int64         `json:"points_awarded" db:"points_awarded"`
	Comment       *string       `json:"comment,omitempty" db:"comment"`
	ImageURL      *string       `json:"image_url,omitempty" db:"image_url"`
	ImagePublicID *string       `json:"-" db:"image_public_id"`
	LoggedAt      time.Time     `json:"logged_at" db:"logged_at"`
}

// Challenge is a time-boxed task set with a point reward. Participant and
// completion membership live in join tables and behave as sets: repeated
// joins or completions have no additional effect.
type Challenge struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Tasks        []string  `json:"tasks"`
	StartDate    time.Time `json:"start_date" db:"start_date"`
	EndDate      time.Time `json:"end_date" db:"end_date"`
	RewardPoints int64     `json:"reward_points" db:"reward_points"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Participants []int64   `json:"participant_ids,omitempty"`
	CompletedBy  []int64   `json:"completed_by_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ChallengeStatus is a user's progress state relative to one challenge.
// Transitions only move forward: NotJoined -> Joined -> Completed.
type ChallengeStatus string

const (
	StatusNotJoined ChallengeStatus = "not_joined"
	StatusJoined    ChallengeStatus = "joined"
	StatusCompleted ChallengeStatus = "completed"
)

// ===============================
// DERIVED VIEWS
// ===============================

// UserStats is the read-time fold over a user's account and log set. It is
// recomputed on every request, never cached or incrementally maintained.
type UserStats struct {
	UserID         int64                     `json:"user_id"`
	EcoPoints      int64                     `json:"eco_points"`
	Badges         []string                  `json:"badges"`
	LogCount       int                       `json:"log_count"`
	WasteBreakdown map[WasteCategory]float64 `json:"waste_breakdown"`
	CO2Saved       float64                   `json:"co2_saved"`
	WasteDiverted  float64                   `json:"waste_diverted"`
}

// LeaderboardEntry is one row of the points-descending ranking. Credentials
// are never part of this projection.
type LeaderboardEntry struct {
	Rank      int      `json:"rank"`
	UserID    int64    `json:"user_id"`
	Name      string   `json:"name"`
	EcoPoints int64    `json:"eco_points"`
	Badges    []string `json:"badges"`
}
