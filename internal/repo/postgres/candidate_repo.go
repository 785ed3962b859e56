package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CandidateRepo struct {
	pool *pgxpool.Pool
}

func NewCandidateRepo(pool *pgxpool.Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

// ListCandidateIDs returns other registrants of the event the viewer has not
// swiped yet and who are not blocked from the event, oldest registration first.
func (r *CandidateRepo) ListCandidateIDs(ctx context.Context, eventID, viewerUserID int64, limit int) ([]int64, error) {
	if eventID <= 0 || viewerUserID <= 0 {
		return nil, fmt.Errorf("invalid candidate query")
	}
	if limit <= 0 {
		return []int64{}, nil
	}
	if r.pool == nil {
		return nil, ErrPoolUnavailable
	}

	rows, err := r.pool.Query(ctx, `
SELECT r.user_id
FROM registrations r
WHERE
	r.event_id = $1
	AND r.user_id <> $2
	AND NOT EXISTS (
		SELECT 1
		FROM swipes s
		WHERE s.event_id = r.event_id
			AND s.actor_user_id = $2
			AND s.target_user_id = r.user_id
	)
	AND NOT EXISTS (
		SELECT 1
		FROM blocked_users b
		WHERE b.event_id = r.event_id
			AND b.user_id = r.user_id
	)
ORDER BY r.created_at ASC, r.user_id ASC
LIMIT $3
`, eventID, viewerUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list discovery candidates: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan discovery candidate: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate discovery candidates: %w", rows.Err())
	}

	return ids, nil
}
