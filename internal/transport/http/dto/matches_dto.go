package dto

import (
	"time"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
)

type MatchResponse struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

type MatchItemResponse struct {
	MatchResponse
	CounterpartID int64            `json:"counterpart_id"`
	Counterpart   *ProfileResponse `json:"counterpart,omitempty"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}

type EventMatchesGroup struct {
	EventID int64               `json:"event_id"`
	Items   []MatchItemResponse `json:"items"`
}

type GroupedMatchesResponse struct {
	Events []EventMatchesGroup `json:"events"`
}

func NewMatchResponse(m model.Match) MatchResponse {
	return MatchResponse{
		ID:        m.ID,
		EventID:   m.EventID,
		UserAID:   m.UserAID,
		UserBID:   m.UserBID,
		CreatedAt: m.CreatedAt,
	}
}
