package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
	ratesvc "github.com/ivankudzin/eventmatch/backend/internal/services/rate"
)

const MaxContentRunes = 4000

var (
	ErrEmptyContent       = errs.Wrap(errs.ErrValidation, "message content is empty")
	ErrContentTooLong     = errs.Wrap(errs.ErrValidation, "message content is too long")
	ErrInvalidClientID    = errs.Wrap(errs.ErrValidation, "client message id must be a uuid")
	ErrInvalidCursor      = errs.Wrap(errs.ErrValidation, "before cursor must be positive")
	ErrOwnMessage         = errs.Wrap(errs.ErrValidation, "sender cannot mark own message as read")
	ErrMessageNotFound    = errs.Wrap(errs.ErrNotFound, "message not found")
	ErrMatchNotInEvent    = errs.Wrap(errs.ErrNotFound, "match does not belong to the event")
	errStoreNotConfigured = errors.New("conversation dependencies are not configured")
)

type MessageStore interface {
	Create(ctx context.Context, in pgrepo.MessageCreate) (model.Message, bool, error)
	GetByClientID(ctx context.Context, matchID, senderUserID int64, clientID uuid.UUID) (model.Message, bool, error)
	GetByID(ctx context.Context, messageID int64) (model.Message, error)
	ListPage(ctx context.Context, matchID int64, beforeID *int64, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID int64) (model.Message, error)
	ToggleLike(ctx context.Context, messageID int64) (model.Message, error)
	ListConversations(ctx context.Context, q pgrepo.ConversationListQuery) ([]model.Conversation, error)
}

// MatchReader resolves a match for a viewer, enforcing participation and blocks.
type MatchReader interface {
	GetMatch(ctx context.Context, matchID, viewerID int64) (model.Match, error)
}

type RegistrationChecker interface {
	RequireRegistration(ctx context.Context, eventID, userID int64) error
}

type BlockChecker interface {
	EnsureUnblocked(ctx context.Context, eventID int64, userIDs ...int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, action string, userID int64) (int64, bool, error)
}

type MessageNotifier interface {
	MessageSent(match model.Match, msg model.Message)
}

type Page struct {
	Match      model.Match
	Messages   []model.Message
	NextBefore *int64
}

type EventGroup struct {
	EventID       int64
	Conversations []model.Conversation
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
}

type Dependencies struct {
	Messages      MessageStore
	Matches       MatchReader
	Registrations RegistrationChecker
	Blocks        BlockChecker
	RateLimiter   RateLimiter
	Notifier      MessageNotifier
}

type Service struct {
	messages      MessageStore
	matches       MatchReader
	registrations RegistrationChecker
	blocks        BlockChecker
	rateLimiter   RateLimiter
	notifier      MessageNotifier
	cfg           Config
	now           func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxLimit <= 0 || cfg.MaxLimit > rules.MaxPageLimit {
		cfg.MaxLimit = rules.MaxPageLimit
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = rules.DefaultPageLimit
	}

	return &Service{
		messages:      deps.Messages,
		matches:       deps.Matches,
		registrations: deps.Registrations,
		blocks:        deps.Blocks,
		rateLimiter:   deps.RateLimiter,
		notifier:      deps.Notifier,
		cfg:           cfg,
		now:           time.Now,
	}
}

// GetMessages returns one page of the thread newest first. NextBefore is set
// when the page is full and points at its oldest message.
func (s *Service) GetMessages(ctx context.Context, viewerID, eventID, matchID int64, limit int, beforeID *int64) (Page, error) {
	if beforeID != nil && *beforeID <= 0 {
		return Page{}, ErrInvalidCursor
	}
	match, err := s.matchInEvent(ctx, viewerID, eventID, matchID)
	if err != nil {
		return Page{}, err
	}

	limit = rules.ClampLimit(limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	items, err := s.messages.ListPage(ctx, match.ID, beforeID, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list messages: %w", err)
	}

	page := Page{Match: match, Messages: items}
	if len(items) == limit {
		oldest := items[len(items)-1].ID
		page.NextBefore = &oldest
	}
	return page, nil
}

// SendMessage appends a message from sender. A repeated clientMessageID
// returns the stored message with created=false, sends no notification and
// does not use a rate limit slot.
func (s *Service) SendMessage(ctx context.Context, senderID, eventID, matchID int64, content, clientMessageID string) (model.Message, bool, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, false, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return model.Message{}, false, ErrContentTooLong
	}

	var clientID *uuid.UUID
	if raw := strings.TrimSpace(clientMessageID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return model.Message{}, false, ErrInvalidClientID
		}
		clientID = &parsed
	}

	match, err := s.matchInEvent(ctx, senderID, eventID, matchID)
	if err != nil {
		return model.Message{}, false, err
	}

	if clientID != nil {
		stored, found, err := s.messages.GetByClientID(ctx, match.ID, senderID, *clientID)
		if err != nil {
			return model.Message{}, false, err
		}
		if found {
			return stored, false, nil
		}
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, ratesvc.ActionMessage, senderID)
		if err != nil {
			return model.Message{}, false, fmt.Errorf("apply message rate limiter: %w", err)
		}
		if !allowed {
			return model.Message{}, false, ratesvc.TooFastError{Action: ratesvc.ActionMessage, RetryAfterSec: retryAfter}
		}
	}

	msg, created, err := s.messages.Create(ctx, pgrepo.MessageCreate{
		MatchID:         match.ID,
		SenderUserID:    senderID,
		Content:         content,
		ClientMessageID: clientID,
		SentAt:          s.now().UTC(),
	})
	if err != nil {
		return model.Message{}, false, err
	}

	if created && s.notifier != nil {
		s.notifier.MessageSent(match, msg)
	}
	return msg, created, nil
}

func (s *Service) MarkRead(ctx context.Context, viewerID, messageID int64) (model.Message, error) {
	msg, err := s.messageForViewer(ctx, viewerID, messageID)
	if err != nil {
		return model.Message{}, err
	}
	if msg.SenderUserID == viewerID {
		return model.Message{}, ErrOwnMessage
	}
	if msg.IsRead {
		return msg, nil
	}

	return s.translateMessage(s.messages.MarkRead(ctx, messageID))
}

func (s *Service) ToggleLike(ctx context.Context, viewerID, messageID int64) (model.Message, error) {
	if _, err := s.messageForViewer(ctx, viewerID, messageID); err != nil {
		return model.Message{}, err
	}

	return s.translateMessage(s.messages.ToggleLike(ctx, messageID))
}

// ListConversations lists the user's matches with the latest message and the
// unread count. With an event the user must be registered and not blocked.
func (s *Service) ListConversations(ctx context.Context, userID int64, eventID *int64, limit, offset int) ([]model.Conversation, error) {
	if userID <= 0 || (eventID != nil && *eventID <= 0) {
		return nil, errs.ErrValidation
	}
	if s.messages == nil {
		return nil, errStoreNotConfigured
	}

	if eventID != nil {
		if s.registrations == nil || s.blocks == nil {
			return nil, errStoreNotConfigured
		}
		if err := s.registrations.RequireRegistration(ctx, *eventID, userID); err != nil {
			return nil, err
		}
		if err := s.blocks.EnsureUnblocked(ctx, *eventID, userID); err != nil {
			return nil, err
		}
	}

	items, err := s.messages.ListConversations(ctx, pgrepo.ConversationListQuery{
		UserID:  userID,
		EventID: eventID,
		Limit:   rules.ClampLimit(limit, s.cfg.DefaultLimit, s.cfg.MaxLimit),
		Offset:  rules.ClampOffset(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return items, nil
}

func (s *Service) ListGroupedByEvent(ctx context.Context, userID int64, limit, offset int) ([]EventGroup, error) {
	items, err := s.ListConversations(ctx, userID, nil, limit, offset)
	if err != nil {
		return nil, err
	}

	groups := make([]EventGroup, 0)
	index := map[int64]int{}
	for _, item := range items {
		pos, ok := index[item.Match.EventID]
		if !ok {
			pos = len(groups)
			index[item.Match.EventID] = pos
			groups = append(groups, EventGroup{EventID: item.Match.EventID})
		}
		groups[pos].Conversations = append(groups[pos].Conversations, item)
	}
	return groups, nil
}

func (s *Service) matchInEvent(ctx context.Context, viewerID, eventID, matchID int64) (model.Match, error) {
	if viewerID <= 0 || eventID <= 0 || matchID <= 0 {
		return model.Match{}, errs.ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return model.Match{}, errStoreNotConfigured
	}

	match, err := s.matches.GetMatch(ctx, matchID, viewerID)
	if err != nil {
		return model.Match{}, err
	}
	if match.EventID != eventID {
		return model.Match{}, ErrMatchNotInEvent
	}
	return match, nil
}

func (s *Service) messageForViewer(ctx context.Context, viewerID, messageID int64) (model.Message, error) {
	if viewerID <= 0 || messageID <= 0 {
		return model.Message{}, errs.ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return model.Message{}, errStoreNotConfigured
	}

	msg, err := s.translateMessage(s.messages.GetByID(ctx, messageID))
	if err != nil {
		return model.Message{}, err
	}
	if _, err := s.matches.GetMatch(ctx, msg.MatchID, viewerID); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func (s *Service) translateMessage(msg model.Message, err error) (model.Message, error) {
	if err != nil {
		if errors.Is(err, pgrepo.ErrMessageNotFound) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, err
	}
	return msg, nil
}
