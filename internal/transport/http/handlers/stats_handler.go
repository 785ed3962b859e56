package handlers

import (
	"net/http"

	"go.uber.org/zap"

	statssvc "github.com/ivankudzin/eventmatch/backend/internal/services/stats"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

type StatsHandler struct {
	service *statssvc.Service
	log     *zap.Logger
}

func NewStatsHandler(service *statssvc.Service, log *zap.Logger) *StatsHandler {
	return &StatsHandler{service: service, log: nopIfNil(log)}
}

func (h *StatsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "STATS_SERVICE_UNAVAILABLE", "stats service is unavailable")
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}

	stats, err := h.service.ForEvent(r.Context(), identity.UserID, identity.Role, eventID)
	if err != nil {
		writeServiceError(w, h.log, err, "event stats")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewEventStatsResponse(stats))
}
