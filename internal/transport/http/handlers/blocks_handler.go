package handlers

import (
	"net/http"

	"go.uber.org/zap"

	blocksvc "github.com/ivankudzin/eventmatch/backend/internal/services/blocks"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

type BlocksHandler struct {
	service *blocksvc.Service
	log     *zap.Logger
}

func NewBlocksHandler(service *blocksvc.Service, log *zap.Logger) *BlocksHandler {
	return &BlocksHandler{service: service, log: nopIfNil(log)}
}

func (h *BlocksHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}

	query := r.URL.Query()
	items, err := h.service.List(
		r.Context(),
		identity.UserID,
		identity.Role,
		eventID,
		parseIntOrDefault(query.Get("limit"), 0),
		parseIntOrDefault(query.Get("offset"), 0),
	)
	if err != nil {
		writeServiceError(w, h.log, err, "list blocks")
		return
	}

	out := make([]dto.BlockResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewBlockResponse(item))
	}
	httperrors.Write(w, http.StatusOK, dto.BlocksResponse{Items: out})
}

func (h *BlocksHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}

	var req dto.BlockRequest
	if err := decodeJSON(w, r, &req); err != nil || req.UserID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	saved, err := h.service.Block(r.Context(), identity.UserID, identity.Role, eventID, req.UserID, req.Reason)
	if err != nil {
		writeServiceError(w, h.log, err, "block user")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewBlockResponse(saved))
}

func (h *BlocksHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := pathInt64(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.Unblock(r.Context(), identity.UserID, identity.Role, eventID, userID); err != nil {
		writeServiceError(w, h.log, err, "unblock user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlocksHandler) available(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "BLOCKS_SERVICE_UNAVAILABLE", "block service is unavailable")
		return false
	}
	return true
}
