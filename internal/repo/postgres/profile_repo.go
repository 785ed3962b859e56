package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

type ProfileRecord struct {
	UserID      int64
	DisplayName string
	Birthdate   *time.Time
	PhotoKeys   []string
	Answers     map[string]any
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// ListForEvent loads profiles of users registered in the event together with
// their registration answers. Users without a registration are skipped.
func (r *ProfileRepo) ListForEvent(ctx context.Context, eventID int64, userIDs []int64) ([]ProfileRecord, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("invalid event id")
	}
	if len(userIDs) == 0 {
		return []ProfileRecord{}, nil
	}
	if r.pool == nil {
		return nil, ErrPoolUnavailable
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	p.user_id,
	COALESCE(p.display_name, ''),
	p.birthdate,
	COALESCE(p.photo_keys, '{}'::text[]),
	COALESCE(r.answers, '{}'::jsonb)
FROM registrations r
JOIN profiles p ON p.user_id = r.user_id
WHERE r.event_id = $1 AND r.user_id = ANY($2)
`, eventID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list event profiles: %w", err)
	}
	defer rows.Close()

	items := make([]ProfileRecord, 0, len(userIDs))
	for rows.Next() {
		var (
			item       ProfileRecord
			rawAnswers []byte
		)
		if err := rows.Scan(
			&item.UserID,
			&item.DisplayName,
			&item.Birthdate,
			&item.PhotoKeys,
			&rawAnswers,
		); err != nil {
			return nil, fmt.Errorf("scan event profile: %w", err)
		}
		item.Answers = decodeAnswers(rawAnswers)
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate event profiles: %w", rows.Err())
	}

	return items, nil
}

func decodeAnswers(raw []byte) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
