package model

import "time"

type Message struct {
	ID           int64     `json:"id"`
	MatchID      int64     `json:"match_id"`
	SenderUserID int64     `json:"sender_user_id"`
	Content      string    `json:"content"`
	SentAt       time.Time `json:"sent_at"`
	IsRead       bool      `json:"is_read"`
	IsLiked      bool      `json:"is_liked"`
}

type Conversation struct {
	Match         Match    `json:"match"`
	CounterpartID int64    `json:"counterpart_id"`
	LastMessage   *Message `json:"last_message,omitempty"`
	UnreadCount   int      `json:"unread_count"`
}
