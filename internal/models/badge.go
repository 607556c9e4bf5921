package models

import "time"

// Badge is a catalog entry describing an achievement marker. Unlock
// conditions are free text; awarding is performed by the challenge engine
// (keyed by challenge title) or ad hoc, not evaluated from the condition.
type Badge struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Condition   string     `json:"condition" db:"condition"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
