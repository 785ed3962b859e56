package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

type EventCountsRecord struct {
	RegisteredUsers     int64
	Likes               int64
	Passes              int64
	Matches             int64
	Messages            int64
	ActiveConversations int64
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) EventCounts(ctx context.Context, eventID int64) (EventCountsRecord, error) {
	if eventID <= 0 {
		return EventCountsRecord{}, fmt.Errorf("invalid event id")
	}
	if r.pool == nil {
		return EventCountsRecord{}, ErrPoolUnavailable
	}

	var rec EventCountsRecord
	err := r.pool.QueryRow(ctx, `
SELECT
	(SELECT COUNT(*) FROM registrations WHERE event_id = $1),
	(SELECT COUNT(*) FROM swipes WHERE event_id = $1 AND decision = 'like'),
	(SELECT COUNT(*) FROM swipes WHERE event_id = $1 AND decision = 'pass'),
	(SELECT COUNT(*) FROM matches WHERE event_id = $1),
	(SELECT COUNT(*) FROM messages msg JOIN matches m ON m.id = msg.match_id WHERE m.event_id = $1),
	(SELECT COUNT(DISTINCT msg.match_id) FROM messages msg JOIN matches m ON m.id = msg.match_id WHERE m.event_id = $1)
`, eventID).Scan(
		&rec.RegisteredUsers,
		&rec.Likes,
		&rec.Passes,
		&rec.Matches,
		&rec.Messages,
		&rec.ActiveConversations,
	)
	if err != nil {
		return EventCountsRecord{}, fmt.Errorf("count event stats: %w", err)
	}

	return rec, nil
}
