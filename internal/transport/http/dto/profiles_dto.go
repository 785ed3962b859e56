package dto

import "github.com/ivankudzin/eventmatch/backend/internal/domain/model"

type ProfileResponse struct {
	UserID      int64          `json:"user_id"`
	DisplayName string         `json:"display_name"`
	Age         int            `json:"age,omitempty"`
	PhotoURLs   []string       `json:"photo_urls"`
	Answers     map[string]any `json:"answers"`
}

type ProfilesResponse struct {
	Items []ProfileResponse `json:"items"`
}

func NewProfileResponse(p model.Profile) ProfileResponse {
	photos := p.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	answers := p.Answers
	if answers == nil {
		answers = map[string]any{}
	}
	return ProfileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Age:         p.Age,
		PhotoURLs:   photos,
		Answers:     answers,
	}
}
