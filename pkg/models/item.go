package models

import "time"

// ItemID is the surrogate key of an item row
type ItemID int64

// Item represents a single practice question, identified by (Family, Name)
type Item struct {
	ID             ItemID     `json:"id" db:"id"`
	Family         string     `json:"family" db:"family"` // Leaf set the item was ingested from
	Name           string     `json:"name" db:"name"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastAnsweredAt *time.Time `json:"last_answered_at" db:"last_answered_at"`
	Estimate       float64    `json:"estimate" db:"estimate"`           // Mastery estimate in [0, 1]
	NumCorrect     int        `json:"num_correct" db:"num_correct"`     // Advisory only
	NumIncorrect   int        `json:"num_incorrect" db:"num_incorrect"` // Advisory only
	Data           []byte     `json:"-" db:"data"`                      // YAML payload of the question
}
