package handlers

import (
	"net/http"

	"go.uber.org/zap"

	convsvc "github.com/ivankudzin/eventmatch/backend/internal/services/conversations"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

type ConversationsHandler struct {
	service *convsvc.Service
	log     *zap.Logger
}

func NewConversationsHandler(service *convsvc.Service, log *zap.Logger) *ConversationsHandler {
	return &ConversationsHandler{service: service, log: nopIfNil(log)}
}

// Messages serves GET /events/{eventID}/matches/{matchID}/messages.
func (h *ConversationsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}
	matchID, ok := pathInt64(w, r, "matchID")
	if !ok {
		return
	}
	before, ok := optionalQueryInt64(r, "before")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid before cursor")
		return
	}

	page, err := h.service.GetMessages(r.Context(), identity.UserID, eventID, matchID, parseIntOrDefault(r.URL.Query().Get("limit"), 0), before)
	if err != nil {
		writeServiceError(w, h.log, err, "get messages")
		return
	}

	messages := make([]dto.MessageResponse, 0, len(page.Messages))
	for _, msg := range page.Messages {
		messages = append(messages, dto.NewMessageResponse(msg))
	}
	httperrors.Write(w, http.StatusOK, dto.MessagesPageResponse{
		Match:      dto.NewMatchResponse(page.Match),
		Messages:   messages,
		NextBefore: page.NextBefore,
	})
}

// Send serves POST /events/{eventID}/matches/{matchID}/messages. A retried
// client_message_id answers 200 with the stored message instead of 201.
func (h *ConversationsHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	eventID, ok := pathInt64(w, r, "eventID")
	if !ok {
		return
	}
	matchID, ok := pathInt64(w, r, "matchID")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	msg, created, err := h.service.SendMessage(r.Context(), identity.UserID, eventID, matchID, req.Content, req.ClientMessageID)
	if err != nil {
		writeServiceError(w, h.log, err, "send message")
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	httperrors.Write(w, status, dto.NewMessageResponse(msg))
}

// MarkRead serves PUT /messages/{messageID}/read.
func (h *ConversationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	messageID, ok := pathInt64(w, r, "messageID")
	if !ok {
		return
	}

	msg, err := h.service.MarkRead(r.Context(), identity.UserID, messageID)
	if err != nil {
		writeServiceError(w, h.log, err, "mark message read")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.MessageReadResponse{ID: msg.ID, IsRead: msg.IsRead})
}

// ToggleLike serves PUT /messages/{messageID}/like.
func (h *ConversationsHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	messageID, ok := pathInt64(w, r, "messageID")
	if !ok {
		return
	}

	msg, err := h.service.ToggleLike(r.Context(), identity.UserID, messageID)
	if err != nil {
		writeServiceError(w, h.log, err, "toggle message like")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.MessageLikeResponse{ID: msg.ID, IsLiked: msg.IsLiked})
}

// List serves GET /matches/conversations. Without event_id the result is
// grouped by event.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.available(w) {
		return
	}
	eventID, ok := optionalQueryInt64(r, "event_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid event_id")
		return
	}

	query := r.URL.Query()
	limit := parseIntOrDefault(query.Get("limit"), 0)
	offset := parseIntOrDefault(query.Get("offset"), 0)

	if eventID != nil {
		items, err := h.service.ListConversations(r.Context(), identity.UserID, eventID, limit, offset)
		if err != nil {
			writeServiceError(w, h.log, err, "list conversations")
			return
		}
		out := make([]dto.ConversationResponse, 0, len(items))
		for _, item := range items {
			out = append(out, dto.NewConversationResponse(item))
		}
		httperrors.Write(w, http.StatusOK, dto.ConversationsResponse{Items: out})
		return
	}

	groups, err := h.service.ListGroupedByEvent(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "list conversations")
		return
	}
	events := make([]dto.EventConversationsGroup, 0, len(groups))
	for _, group := range groups {
		convs := make([]dto.ConversationResponse, 0, len(group.Conversations))
		for _, item := range group.Conversations {
			convs = append(convs, dto.NewConversationResponse(item))
		}
		events = append(events, dto.EventConversationsGroup{EventID: group.EventID, Conversations: convs})
	}
	httperrors.Write(w, http.StatusOK, dto.GroupedConversationsResponse{Events: events})
}

func (h *ConversationsHandler) available(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "CONVERSATIONS_SERVICE_UNAVAILABLE", "conversation service is unavailable")
		return false
	}
	return true
}
