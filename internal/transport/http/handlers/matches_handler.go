package handlers

import (
	"net/http"

	"go.uber.org/zap"

	matchsvc "github.com/ivankudzin/eventmatch/backend/internal/services/matches"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchsvc.Service
	log     *zap.Logger
}

func NewMatchesHandler(service *matchsvc.Service, log *zap.Logger) *MatchesHandler {
	return &MatchesHandler{service: service, log: nopIfNil(log)}
}

// ListForEvent serves GET /events/{eventID}/matches.
func (h *MatchesHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}

	query := r.URL.Query()
	items, err := h.service.ListMatchesForUser(
		r.Context(),
		identity.UserID,
		&eventID,
		parseIntOrDefault(query.Get("limit"), 0),
		parseIntOrDefault(query.Get("offset"), 0),
	)
	if err != nil {
		writeServiceError(w, h.log, err, "list event matches")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: matchItems(items)})
}

// ListGrouped serves GET /matches.
func (h *MatchesHandler) ListGrouped(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	query := r.URL.Query()
	groups, err := h.service.ListGroupedByEvent(
		r.Context(),
		identity.UserID,
		parseIntOrDefault(query.Get("limit"), 0),
		parseIntOrDefault(query.Get("offset"), 0),
	)
	if err != nil {
		writeServiceError(w, h.log, err, "list matches")
		return
	}

	events := make([]dto.EventMatchesGroup, 0, len(groups))
	for _, group := range groups {
		events = append(events, dto.EventMatchesGroup{
			EventID: group.EventID,
			Items:   matchItems(group.Items),
		})
	}
	httperrors.Write(w, http.StatusOK, dto.GroupedMatchesResponse{Events: events})
}

// CounterpartProfile serves GET /matches/{matchID}/profile.
func (h *MatchesHandler) CounterpartProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}
	matchID, ok := pathInt64(w, r, "matchID")
	if !ok {
		return
	}

	profile, err := h.service.CounterpartProfile(r.Context(), matchID, identity.UserID)
	if err != nil {
		writeServiceError(w, h.log, err, "load counterpart profile")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(profile))
}

func matchItems(items []matchsvc.Item) []dto.MatchItemResponse {
	out := make([]dto.MatchItemResponse, 0, len(items))
	for _, item := range items {
		resp := dto.MatchItemResponse{
			MatchResponse: dto.NewMatchResponse(item.Match),
			CounterpartID: item.CounterpartID,
		}
		if item.Counterpart != nil {
			profile := dto.NewProfileResponse(*item.Counterpart)
			resp.Counterpart = &profile
		}
		out = append(out, resp)
	}
	return out
}
