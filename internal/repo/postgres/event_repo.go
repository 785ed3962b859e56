package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) GetByID(ctx context.Context, eventID int64) (model.Event, error) {
	if eventID <= 0 {
		return model.Event{}, fmt.Errorf("invalid event id")
	}
	if r.pool == nil {
		return model.Event{}, ErrPoolUnavailable
	}

	var event model.Event
	err := r.pool.QueryRow(ctx, `
SELECT id, organizer_user_id, name, created_at
FROM events
WHERE id = $1
`, eventID).Scan(
		&event.ID,
		&event.OrganizerUserID,
		&event.Name,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}

	return event, nil
}

func (r *EventRepo) RegistrationExists(ctx context.Context, eventID, userID int64) (bool, error) {
	if eventID <= 0 || userID <= 0 {
		return false, fmt.Errorf("invalid registration lookup")
	}
	if r.pool == nil {
		return false, ErrPoolUnavailable
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM registrations
	WHERE event_id = $1 AND user_id = $2
)
`, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup registration: %w", err)
	}

	return exists, nil
}
