package events

import (
	"context"
	"errors"
	"testing"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

type eventStoreStub struct {
	events        map[int64]model.Event
	registrations map[[2]int64]bool
	err           error
}

func (s *eventStoreStub) GetByID(_ context.Context, eventID int64) (model.Event, error) {
	if s.err != nil {
		return model.Event{}, s.err
	}
	event, ok := s.events[eventID]
	if !ok {
		return model.Event{}, pgrepo.ErrEventNotFound
	}
	return event, nil
}

func (s *eventStoreStub) RegistrationExists(_ context.Context, eventID, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.registrations[[2]int64{eventID, userID}], nil
}

func newStoreStub() *eventStoreStub {
	return &eventStoreStub{
		events: map[int64]model.Event{
			10: {ID: 10, OrganizerUserID: 1, Name: "Spring mixer"},
		},
		registrations: map[[2]int64]bool{
			{10, 2}: true,
		},
	}
}

func TestRequireRegistration(t *testing.T) {
	svc := NewService(newStoreStub())

	if err := svc.RequireRegistration(context.Background(), 10, 2); err != nil {
		t.Fatalf("registered user rejected: %v", err)
	}

	err := svc.RequireRegistration(context.Background(), 10, 3)
	if !errors.Is(err, ErrNotRegistered) || !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not registered, got %v", err)
	}

	if err := svc.RequireRegistration(context.Background(), 0, 3); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireRegistrationPropagatesStoreError(t *testing.T) {
	store := newStoreStub()
	store.err = errors.New("db down")
	svc := NewService(store)

	err := svc.RequireRegistration(context.Background(), 10, 2)
	if err == nil || errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected raw store error, got %v", err)
	}
}

func TestRequireOrganizer(t *testing.T) {
	svc := NewService(newStoreStub())
	ctx := context.Background()

	tests := []struct {
		name    string
		eventID int64
		userID  int64
		role    string
		wantErr error
	}{
		{name: "organizer", eventID: 10, userID: 1, role: "organizer"},
		{name: "admin", eventID: 10, userID: 99, role: "admin"},
		{name: "other organizer", eventID: 10, userID: 5, role: "organizer", wantErr: ErrNotOrganizer},
		{name: "attendee", eventID: 10, userID: 2, role: "user", wantErr: errs.ErrForbidden},
		{name: "unknown event", eventID: 11, userID: 1, role: "admin", wantErr: ErrEventNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := svc.RequireOrganizer(ctx, tc.eventID, tc.userID, tc.role)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.ID != tc.eventID {
				t.Fatalf("unexpected event: %+v", event)
			}
		})
	}
}
