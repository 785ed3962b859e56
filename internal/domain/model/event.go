package model

import "time"

type Event struct {
	ID              int64     `json:"id"`
	OrganizerUserID int64     `json:"organizer_user_id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
}

type Registration struct {
	EventID   int64          `json:"event_id"`
	UserID    int64          `json:"user_id"`
	Answers   map[string]any `json:"answers"`
	CreatedAt time.Time      `json:"created_at"`
}
