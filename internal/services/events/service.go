// Package events answers the two questions every matching operation asks about
// an event: is this user registered, and may this user organize it.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

var (
	ErrEventNotFound = errs.Wrap(errs.ErrNotFound, "event not found")
	ErrNotRegistered = errs.Wrap(errs.ErrNotFound, "user is not registered for the event")
	ErrNotOrganizer  = errs.Wrap(errs.ErrForbidden, "user does not organize the event")
)

type EventStore interface {
	GetByID(ctx context.Context, eventID int64) (model.Event, error)
	RegistrationExists(ctx context.Context, eventID, userID int64) (bool, error)
}

type Service struct {
	store EventStore
}

func NewService(store EventStore) *Service {
	return &Service{store: store}
}

func (s *Service) RequireRegistration(ctx context.Context, eventID, userID int64) error {
	if eventID <= 0 || userID <= 0 {
		return errs.ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("event store is not configured")
	}

	registered, err := s.store.RegistrationExists(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if !registered {
		return ErrNotRegistered
	}
	return nil
}

// RequireOrganizer passes for the event's organizer and for admins. Admins
// still get ErrEventNotFound for unknown events.
func (s *Service) RequireOrganizer(ctx context.Context, eventID, userID int64, role string) (model.Event, error) {
	if eventID <= 0 || userID <= 0 {
		return model.Event{}, errs.ErrValidation
	}
	if s.store == nil {
		return model.Event{}, fmt.Errorf("event store is not configured")
	}

	event, err := s.store.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrEventNotFound) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("load event: %w", err)
	}

	if enums.Role(role) == enums.RoleAdmin || event.OrganizerUserID == userID {
		return event, nil
	}
	return model.Event{}, ErrNotOrganizer
}
