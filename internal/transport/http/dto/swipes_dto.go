package dto

type SwipeRequest struct {
	UserID int64 `json:"user_id"`
}

type LikeResponse struct {
	Matched bool           `json:"matched"`
	Match   *MatchResponse `json:"match,omitempty"`
}
