package model

import "time"

// Match is stored once per canonical pair: UserAID < UserBID.
type Match struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Match) HasUser(userID int64) bool {
	return userID > 0 && (m.UserAID == userID || m.UserBID == userID)
}

func (m Match) Counterpart(userID int64) (int64, bool) {
	switch userID {
	case m.UserAID:
		return m.UserBID, true
	case m.UserBID:
		return m.UserAID, true
	default:
		return 0, false
	}
}
