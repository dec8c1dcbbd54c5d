package models

import "time"

// AnswerEvent is one recorded answer to an item. Rows are append-only.
type AnswerEvent struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    ItemID    `json:"item_id" db:"item_id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Time      time.Time `json:"answered_at" db:"answered_at"`
	Correct   bool      `json:"correct" db:"correct"`
}
