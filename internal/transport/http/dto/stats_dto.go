package dto

import "github.com/ivankudzin/eventmatch/backend/internal/domain/model"

type EventStatsResponse struct {
	EventID                    int64   `json:"event_id"`
	RegisteredUsers            int64   `json:"registered_users"`
	TotalSwipes                int64   `json:"total_swipes"`
	Likes                      int64   `json:"likes"`
	Passes                     int64   `json:"passes"`
	LikeRate                   float64 `json:"like_rate"`
	TotalMatches               int64   `json:"total_matches"`
	AvgMatchesPerUser          float64 `json:"avg_matches_per_user"`
	ReciprocityRate            float64 `json:"reciprocity_rate"`
	TotalMessages              int64   `json:"total_messages"`
	ActiveConversations        int64   `json:"active_conversations"`
	AvgMessagesPerConversation float64 `json:"avg_messages_per_conversation"`
}

func NewEventStatsResponse(s model.EventStats) EventStatsResponse {
	return EventStatsResponse(s)
}
