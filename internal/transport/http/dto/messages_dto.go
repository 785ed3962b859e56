package dto

import (
	"time"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
)

type SendMessageRequest struct {
	Content         string `json:"content"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type MessageResponse struct {
	ID           int64     `json:"id"`
	MatchID      int64     `json:"match_id"`
	SenderUserID int64     `json:"sender_user_id"`
	Content      string    `json:"content"`
	SentAt       time.Time `json:"sent_at"`
	IsRead       bool      `json:"is_read"`
	IsLiked      bool      `json:"is_liked"`
}

type MessagesPageResponse struct {
	Match      MatchResponse     `json:"match"`
	Messages   []MessageResponse `json:"messages"`
	NextBefore *int64            `json:"next_before"`
}

type MessageReadResponse struct {
	ID     int64 `json:"id"`
	IsRead bool  `json:"is_read"`
}

type MessageLikeResponse struct {
	ID      int64 `json:"id"`
	IsLiked bool  `json:"is_liked"`
}

type ConversationResponse struct {
	Match         MatchResponse    `json:"match"`
	EventID       int64            `json:"event_id"`
	CounterpartID int64            `json:"counterpart_id"`
	LastMessage   *MessageResponse `json:"last_message"`
	UnreadCount   int              `json:"unread_count"`
}

type ConversationsResponse struct {
	Items []ConversationResponse `json:"items"`
}

type EventConversationsGroup struct {
	EventID       int64                  `json:"event_id"`
	Conversations []ConversationResponse `json:"conversations"`
}

type GroupedConversationsResponse struct {
	Events []EventConversationsGroup `json:"events"`
}

func NewMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:           m.ID,
		MatchID:      m.MatchID,
		SenderUserID: m.SenderUserID,
		Content:      m.Content,
		SentAt:       m.SentAt,
		IsRead:       m.IsRead,
		IsLiked:      m.IsLiked,
	}
}

func NewConversationResponse(c model.Conversation) ConversationResponse {
	out := ConversationResponse{
		Match:         NewMatchResponse(c.Match),
		EventID:       c.Match.EventID,
		CounterpartID: c.CounterpartID,
		UnreadCount:   c.UnreadCount,
	}
	if c.LastMessage != nil {
		last := NewMessageResponse(*c.LastMessage)
		out.LastMessage = &last
	}
	return out
}
