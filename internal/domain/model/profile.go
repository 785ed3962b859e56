package model

type Profile struct {
	UserID      int64          `json:"user_id"`
	DisplayName string         `json:"display_name"`
	Age         int            `json:"age"`
	PhotoURLs   []string       `json:"photo_urls"`
	Answers     map[string]any `json:"answers"`
}
