package handlers

import (
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/eventmatch/backend/internal/services/auth"
	swipesvc "github.com/ivankudzin/eventmatch/backend/internal/services/swipes"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
	log     *zap.Logger
}

func NewSwipeHandler(service *swipesvc.Service, log *zap.Logger) *SwipeHandler {
	return &SwipeHandler{service: service, log: nopIfNil(log)}
}

func (h *SwipeHandler) Like(w http.ResponseWriter, r *http.Request) {
	identity, eventID, req, ok := h.parse(w, r)
	if !ok {
		return
	}

	result, err := h.service.Like(r.Context(), eventID, identity.UserID, req.UserID)
	if err != nil {
		writeServiceError(w, h.log, err, "record like")
		return
	}

	resp := dto.LikeResponse{Matched: result.Matched}
	if result.Match != nil {
		match := dto.NewMatchResponse(*result.Match)
		resp.Match = &match
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *SwipeHandler) Pass(w http.ResponseWriter, r *http.Request) {
	identity, eventID, req, ok := h.parse(w, r)
	if !ok {
		return
	}

	if err := h.service.PassOnProfile(r.Context(), eventID, identity.UserID, req.UserID); err != nil {
		writeServiceError(w, h.log, err, "record pass")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SwipeHandler) parse(w http.ResponseWriter, r *http.Request) (identity authsvc.Identity, eventID int64, req dto.SwipeRequest, ok bool) {
	identity, ok = requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return identity, 0, req, false
	}
	eventID, ok = pathInt64(w, r, "eventID")
	if !ok {
		return
	}
	if err := decodeJSON(w, r, &req); err != nil || req.UserID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return identity, eventID, req, false
	}
	return identity, eventID, req, true
}
