package dto

import (
	"time"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
)

type BlockRequest struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

type BlockResponse struct {
	EventID         int64     `json:"event_id"`
	UserID          int64     `json:"user_id"`
	Reason          string    `json:"reason"`
	BlockedByUserID int64     `json:"blocked_by_user_id"`
	BlockedAt       time.Time `json:"blocked_at"`
}

type BlocksResponse struct {
	Items []BlockResponse `json:"items"`
}

func NewBlockResponse(b model.BlockedUser) BlockResponse {
	return BlockResponse{
		EventID:         b.EventID,
		UserID:          b.UserID,
		Reason:          b.Reason,
		BlockedByUserID: b.BlockedByUserID,
		BlockedAt:       b.BlockedAt,
	}
}
