package matches

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

var (
	ErrMatchNotFound   = errs.Wrap(errs.ErrNotFound, "match not found")
	ErrNotParticipant  = errs.Wrap(errs.ErrForbidden, "user is not a participant of the match")
	ErrProfileNotFound = errs.Wrap(errs.ErrNotFound, "profile not found")
)

type MatchStore interface {
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
	GetByPair(ctx context.Context, eventID, userID, targetID int64) (model.Match, error)
	ListForUser(ctx context.Context, q pgrepo.MatchListQuery) ([]model.Match, error)
}

type RegistrationChecker interface {
	RequireRegistration(ctx context.Context, eventID, userID int64) error
}

type BlockChecker interface {
	EnsureUnblocked(ctx context.Context, eventID int64, userIDs ...int64) error
}

type ProfileComposer interface {
	Compose(ctx context.Context, eventID int64, userIDs []int64) ([]model.Profile, error)
	One(ctx context.Context, eventID, userID int64) (model.Profile, bool, error)
}

type Item struct {
	Match         model.Match
	CounterpartID int64
	Counterpart   *model.Profile
}

type EventGroup struct {
	EventID int64
	Items   []Item
}

type Dependencies struct {
	Matches       MatchStore
	Registrations RegistrationChecker
	Blocks        BlockChecker
	Profiles      ProfileComposer
}

type Service struct {
	matches       MatchStore
	registrations RegistrationChecker
	blocks        BlockChecker
	profiles      ProfileComposer
}

func NewService(deps Dependencies) *Service {
	return &Service{
		matches:       deps.Matches,
		registrations: deps.Registrations,
		blocks:        deps.Blocks,
		profiles:      deps.Profiles,
	}
}

// GetMatch returns the match when the viewer takes part in it and neither
// participant is blocked from the match's event.
func (s *Service) GetMatch(ctx context.Context, matchID, viewerID int64) (model.Match, error) {
	if matchID <= 0 || viewerID <= 0 {
		return model.Match{}, errs.ErrValidation
	}
	if s.matches == nil || s.blocks == nil {
		return model.Match{}, fmt.Errorf("match dependencies are not configured")
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, err
	}
	if !match.HasUser(viewerID) {
		return model.Match{}, ErrNotParticipant
	}
	if err := s.blocks.EnsureUnblocked(ctx, match.EventID, match.UserAID, match.UserBID); err != nil {
		return model.Match{}, err
	}

	return match, nil
}

// ListMatchesForUser lists matches newest first. With an event the viewer
// must be registered there and not blocked; without one, matches touching a
// blocked participant are filtered by the store.
func (s *Service) ListMatchesForUser(ctx context.Context, userID int64, eventID *int64, limit, offset int) ([]Item, error) {
	if userID <= 0 || (eventID != nil && *eventID <= 0) {
		return nil, errs.ErrValidation
	}
	if s.matches == nil {
		return nil, fmt.Errorf("match dependencies are not configured")
	}

	if eventID != nil {
		if s.registrations == nil || s.blocks == nil {
			return nil, fmt.Errorf("match dependencies are not configured")
		}
		if err := s.registrations.RequireRegistration(ctx, *eventID, userID); err != nil {
			return nil, err
		}
		if err := s.blocks.EnsureUnblocked(ctx, *eventID, userID); err != nil {
			return nil, err
		}
	}

	items, err := s.matches.ListForUser(ctx, pgrepo.MatchListQuery{
		UserID:  userID,
		EventID: eventID,
		Limit:   rules.ClampLimit(limit, rules.DefaultPageLimit, rules.MaxPageLimit),
		Offset:  rules.ClampOffset(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	return s.withCounterparts(ctx, userID, items)
}

// ListGroupedByEvent pages over all of the user's matches and groups them by
// event. Groups keep the order in which their newest match appears.
func (s *Service) ListGroupedByEvent(ctx context.Context, userID int64, limit, offset int) ([]EventGroup, error) {
	items, err := s.ListMatchesForUser(ctx, userID, nil, limit, offset)
	if err != nil {
		return nil, err
	}
	return groupByEvent(items), nil
}

// IsMatched reports whether the two users matched in the event, in either order.
func (s *Service) IsMatched(ctx context.Context, eventID, userID, otherID int64) (bool, error) {
	if eventID <= 0 || userID <= 0 || otherID <= 0 || userID == otherID {
		return false, errs.ErrValidation
	}
	if s.matches == nil {
		return false, fmt.Errorf("match dependencies are not configured")
	}

	if _, err := s.matches.GetByPair(ctx, eventID, userID, otherID); err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) CounterpartProfile(ctx context.Context, matchID, viewerID int64) (model.Profile, error) {
	match, err := s.GetMatch(ctx, matchID, viewerID)
	if err != nil {
		return model.Profile{}, err
	}
	if s.profiles == nil {
		return model.Profile{}, fmt.Errorf("profile composer is not configured")
	}

	counterpartID, _ := match.Counterpart(viewerID)
	profile, ok, err := s.profiles.One(ctx, match.EventID, counterpartID)
	if err != nil {
		return model.Profile{}, err
	}
	if !ok {
		return model.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) withCounterparts(ctx context.Context, viewerID int64, matches []model.Match) ([]Item, error) {
	items := make([]Item, 0, len(matches))
	idsByEvent := map[int64][]int64{}
	eventOrder := make([]int64, 0)
	for _, match := range matches {
		counterpartID, _ := match.Counterpart(viewerID)
		items = append(items, Item{Match: match, CounterpartID: counterpartID})
		if _, seen := idsByEvent[match.EventID]; !seen {
			eventOrder = append(eventOrder, match.EventID)
		}
		idsByEvent[match.EventID] = append(idsByEvent[match.EventID], counterpartID)
	}
	if s.profiles == nil || len(items) == 0 {
		return items, nil
	}

	type profileKey struct {
		eventID int64
		userID  int64
	}
	profiles := map[profileKey]model.Profile{}
	for _, eventID := range eventOrder {
		composed, err := s.profiles.Compose(ctx, eventID, idsByEvent[eventID])
		if err != nil {
			return nil, fmt.Errorf("compose counterpart profiles: %w", err)
		}
		for _, profile := range composed {
			profiles[profileKey{eventID, profile.UserID}] = profile
		}
	}

	for i := range items {
		if profile, ok := profiles[profileKey{items[i].Match.EventID, items[i].CounterpartID}]; ok {
			p := profile
			items[i].Counterpart = &p
		}
	}
	return items, nil
}

func groupByEvent(items []Item) []EventGroup {
	groups := make([]EventGroup, 0)
	index := map[int64]int{}
	for _, item := range items {
		pos, ok := index[item.Match.EventID]
		if !ok {
			pos = len(groups)
			index[item.Match.EventID] = pos
			groups = append(groups, EventGroup{EventID: item.Match.EventID})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}
