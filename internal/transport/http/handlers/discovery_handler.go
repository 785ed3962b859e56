package handlers

import (
	"net/http"

	"go.uber.org/zap"

	discoverysvc "github.com/ivankudzin/eventmatch/backend/internal/services/discovery"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

type DiscoveryHandler struct {
	service *discoverysvc.Service
	log     *zap.Logger
}

func NewDiscoveryHandler(service *discoverysvc.Service, log *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{service: service, log: nopIfNil(log)}
}

func (h *DiscoveryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}

	profiles, err := h.service.GetCandidates(r.Context(), eventID, identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, h.log, err, "get candidates")
		return
	}

	items := make([]dto.ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, dto.NewProfileResponse(profile))
	}
	httperrors.Write(w, http.StatusOK, dto.ProfilesResponse{Items: items})
}
