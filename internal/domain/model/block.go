package model

import "time"

type BlockedUser struct {
	EventID         int64     `json:"event_id"`
	UserID          int64     `json:"user_id"`
	Reason          string    `json:"reason"`
	BlockedByUserID int64     `json:"blocked_by_user_id"`
	BlockedAt       time.Time `json:"blocked_at"`
}
