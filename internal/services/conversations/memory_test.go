package conversations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

// memoryDB holds the tables the matching services touch. Each store view
// below exposes the same method set as its postgres repo.
type memoryDB struct {
	mu            sync.Mutex
	nextID        int64
	events        map[int64]model.Event
	registrations map[[2]int64]time.Time
	blocked       map[[2]int64]model.BlockedUser
	swipes        map[[3]int64]enums.Decision
	matches       map[int64]model.Match
	messages      []model.Message
	clientIDs     map[string]int64
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		events:        map[int64]model.Event{},
		registrations: map[[2]int64]time.Time{},
		blocked:       map[[2]int64]model.BlockedUser{},
		swipes:        map[[3]int64]enums.Decision{},
		matches:       map[int64]model.Match{},
		clientIDs:     map[string]int64{},
	}
}

func (db *memoryDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memoryDB) register(eventID int64, userIDs ...int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, userID := range userIDs {
		db.registrations[[2]int64{eventID, userID}] = time.Now()
	}
}

func (db *memoryDB) blockedPair(m model.Match) bool {
	_, a := db.blocked[[2]int64{m.EventID, m.UserAID}]
	_, b := db.blocked[[2]int64{m.EventID, m.UserBID}]
	return a || b
}

type memEvents struct{ db *memoryDB }

func (s memEvents) GetByID(_ context.Context, eventID int64) (model.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	event, ok := s.db.events[eventID]
	if !ok {
		return model.Event{}, pgrepo.ErrEventNotFound
	}
	return event, nil
}

func (s memEvents) RegistrationExists(_ context.Context, eventID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.registrations[[2]int64{eventID, userID}]
	return ok, nil
}

type memBlocks struct{ db *memoryDB }

func (s memBlocks) IsBlocked(_ context.Context, eventID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.blocked[[2]int64{eventID, userID}]
	return ok, nil
}

func (s memBlocks) Upsert(_ context.Context, block model.BlockedUser) (model.BlockedUser, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]int64{block.EventID, block.UserID}
	if _, ok := s.db.registrations[key]; !ok {
		return model.BlockedUser{}, pgrepo.ErrRegistrationNotFound
	}
	s.db.blocked[key] = block
	return block, nil
}

func (s memBlocks) Delete(_ context.Context, eventID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]int64{eventID, userID}
	_, ok := s.db.blocked[key]
	delete(s.db.blocked, key)
	return ok, nil
}

func (s memBlocks) List(_ context.Context, eventID int64, _, _ int) ([]model.BlockedUser, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.BlockedUser, 0)
	for key, block := range s.db.blocked {
		if key[0] == eventID {
			out = append(out, block)
		}
	}
	return out, nil
}

type memSwipes struct{ db *memoryDB }

func (s memSwipes) Create(_ context.Context, swipe model.SwipeAction) (model.SwipeAction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [3]int64{swipe.EventID, swipe.ActorUserID, swipe.TargetUserID}
	if _, ok := s.db.swipes[key]; ok {
		return model.SwipeAction{}, pgrepo.ErrDuplicateSwipe
	}
	s.db.swipes[key] = swipe.Decision
	swipe.ID = s.db.id()
	return swipe, nil
}

func (s memSwipes) HasDecision(_ context.Context, eventID, actorUserID, targetUserID int64, decision enums.Decision) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	got, ok := s.db.swipes[[3]int64{eventID, actorUserID, targetUserID}]
	return ok && got == decision, nil
}

func (s memSwipes) Decision(_ context.Context, eventID, actorUserID, targetUserID int64) (enums.Decision, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	got, ok := s.db.swipes[[3]int64{eventID, actorUserID, targetUserID}]
	return got, ok, nil
}

type memMatches struct{ db *memoryDB }

func (s memMatches) CreateIfAbsent(_ context.Context, eventID, userID, targetID int64, now time.Time) (model.Match, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, b := rules.CanonicalPair(userID, targetID)
	for _, m := range s.db.matches {
		if m.EventID == eventID && m.UserAID == a && m.UserBID == b {
			return m, false, nil
		}
	}
	m := model.Match{ID: s.db.id(), EventID: eventID, UserAID: a, UserBID: b, CreatedAt: now}
	s.db.matches[m.ID] = m
	return m, true, nil
}

func (s memMatches) GetByID(_ context.Context, matchID int64) (model.Match, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.matches[matchID]
	if !ok {
		return model.Match{}, pgrepo.ErrMatchNotFound
	}
	return m, nil
}

func (s memMatches) GetByPair(_ context.Context, eventID, userID, targetID int64) (model.Match, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, b := rules.CanonicalPair(userID, targetID)
	for _, m := range s.db.matches {
		if m.EventID == eventID && m.UserAID == a && m.UserBID == b {
			return m, nil
		}
	}
	return model.Match{}, pgrepo.ErrMatchNotFound
}

func (s memMatches) ListForUser(_ context.Context, q pgrepo.MatchListQuery) ([]model.Match, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Match, 0)
	for _, m := range s.db.matches {
		if !m.HasUser(q.UserID) || s.db.blockedPair(m) {
			continue
		}
		if q.EventID != nil && m.EventID != *q.EventID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, q.Limit, q.Offset), nil
}

type memMessages struct{ db *memoryDB }

func (s memMessages) Create(_ context.Context, in pgrepo.MessageCreate) (model.Message, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var clientKey string
	if in.ClientMessageID != nil {
		clientKey = in.ClientMessageID.String()
		if id, ok := s.db.clientIDs[clientKey]; ok {
			for _, msg := range s.db.messages {
				if msg.ID == id && msg.MatchID == in.MatchID && msg.SenderUserID == in.SenderUserID {
					return msg, false, nil
				}
			}
		}
	}
	msg := model.Message{
		ID:           s.db.id(),
		MatchID:      in.MatchID,
		SenderUserID: in.SenderUserID,
		Content:      in.Content,
		SentAt:       in.SentAt,
	}
	s.db.messages = append(s.db.messages, msg)
	if clientKey != "" {
		s.db.clientIDs[clientKey] = msg.ID
	}
	return msg, true, nil
}

func (s memMessages) GetByClientID(_ context.Context, matchID, senderUserID int64, clientID uuid.UUID) (model.Message, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id, ok := s.db.clientIDs[clientID.String()]
	if !ok {
		return model.Message{}, false, nil
	}
	for _, msg := range s.db.messages {
		if msg.ID == id && msg.MatchID == matchID && msg.SenderUserID == senderUserID {
			return msg, true, nil
		}
	}
	return model.Message{}, false, nil
}

func (s memMessages) GetByID(_ context.Context, messageID int64) (model.Message, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, msg := range s.db.messages {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return model.Message{}, pgrepo.ErrMessageNotFound
}

func (s memMessages) ListPage(_ context.Context, matchID int64, beforeID *int64, limit int) ([]model.Message, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Message, 0)
	for i := len(s.db.messages) - 1; i >= 0 && len(out) < limit; i-- {
		msg := s.db.messages[i]
		if msg.MatchID != matchID {
			continue
		}
		if beforeID != nil && msg.ID >= *beforeID {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s memMessages) MarkRead(_ context.Context, messageID int64) (model.Message, error) {
	return s.update(messageID, func(msg *model.Message) { msg.IsRead = true })
}

func (s memMessages) ToggleLike(_ context.Context, messageID int64) (model.Message, error) {
	return s.update(messageID, func(msg *model.Message) { msg.IsLiked = !msg.IsLiked })
}

func (s memMessages) update(messageID int64, fn func(*model.Message)) (model.Message, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.messages {
		if s.db.messages[i].ID == messageID {
			fn(&s.db.messages[i])
			return s.db.messages[i], nil
		}
	}
	return model.Message{}, pgrepo.ErrMessageNotFound
}

func (s memMessages) ListConversations(_ context.Context, q pgrepo.ConversationListQuery) ([]model.Conversation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Conversation, 0)
	for _, m := range s.db.matches {
		if !m.HasUser(q.UserID) || s.db.blockedPair(m) {
			continue
		}
		if q.EventID != nil && m.EventID != *q.EventID {
			continue
		}
		conv := model.Conversation{Match: m}
		conv.CounterpartID, _ = m.Counterpart(q.UserID)
		for i := range s.db.messages {
			msg := s.db.messages[i]
			if msg.MatchID != m.ID {
				continue
			}
			last := msg
			conv.LastMessage = &last
			if msg.SenderUserID != q.UserID && !msg.IsRead {
				conv.UnreadCount++
			}
		}
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Match.EventID != out[j].Match.EventID {
			return out[i].Match.EventID < out[j].Match.EventID
		}
		return out[i].Match.ID > out[j].Match.ID
	})
	return page(out, q.Limit, q.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
