package model

import (
	"time"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
)

type SwipeAction struct {
	ID           int64          `json:"id"`
	EventID      int64          `json:"event_id"`
	ActorUserID  int64          `json:"actor_user_id"`
	TargetUserID int64          `json:"target_user_id"`
	Decision     enums.Decision `json:"decision"`
	CreatedAt    time.Time      `json:"created_at"`
}
