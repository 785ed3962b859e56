package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
)

var ErrMatchNotFound = errors.New("match not found")

const matchColumns = `id, event_id, user_a_id, user_b_id, created_at`

type MatchRepo struct {
	pool *pgxpool.Pool
}

type MatchListQuery struct {
	UserID  int64
	EventID *int64
	Limit   int
	Offset  int
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// CreateIfAbsent inserts the match for the canonical pair. When a concurrent
// caller already committed the same pair, the existing row is returned with
// created=false. The fallback read runs as a separate statement so it sees the
// row the conflicting insert waited on.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, eventID, userID, targetID int64, now time.Time) (model.Match, bool, error) {
	if eventID <= 0 || userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	if r.pool == nil {
		return model.Match{}, false, ErrPoolUnavailable
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userA, userB := rules.CanonicalPair(userID, targetID)

	match, err := scanMatch(r.pool.QueryRow(ctx, `
INSERT INTO matches (
	event_id,
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id, user_a_id, user_b_id) DO NOTHING
RETURNING `+matchColumns, eventID, userA, userB, now.UTC()))
	if err == nil {
		return match, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Match{}, false, fmt.Errorf("create match: %w", err)
	}

	existing, err := r.GetByPair(ctx, eventID, userA, userB)
	if err != nil {
		return model.Match{}, false, fmt.Errorf("read concurrently created match: %w", err)
	}
	return existing, false, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, matchID int64) (model.Match, error) {
	if matchID <= 0 {
		return model.Match{}, fmt.Errorf("invalid match id")
	}
	if r.pool == nil {
		return model.Match{}, ErrPoolUnavailable
	}

	match, err := scanMatch(r.pool.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE id = $1
`, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}

	return match, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, eventID, userID, targetID int64) (model.Match, error) {
	if eventID <= 0 || userID <= 0 || targetID <= 0 {
		return model.Match{}, fmt.Errorf("invalid match pair")
	}
	if r.pool == nil {
		return model.Match{}, ErrPoolUnavailable
	}

	userA, userB := rules.CanonicalPair(userID, targetID)
	match, err := scanMatch(r.pool.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE event_id = $1 AND user_a_id = $2 AND user_b_id = $3
`, eventID, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match by pair: %w", err)
	}

	return match, nil
}

// ListForUser returns the user's matches newest first. Pairs where either
// participant is blocked from the match's event are left out.
func (r *MatchRepo) ListForUser(ctx context.Context, q MatchListQuery) ([]model.Match, error) {
	if q.UserID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if q.Limit <= 0 {
		q.Limit = rules.DefaultPageLimit
	}
	if r.pool == nil {
		return nil, ErrPoolUnavailable
	}

	builder := psql.
		Select("m.id", "m.event_id", "m.user_a_id", "m.user_b_id", "m.created_at").
		From("matches m").
		Where(sq.Or{sq.Eq{"m.user_a_id": q.UserID}, sq.Eq{"m.user_b_id": q.UserID}}).
		// Pairs with a blocked side are left out of the listing without an
		// error, also when no event filter is given. Direct reads by id
		// still answer forbidden.
		Where(`NOT EXISTS (
	SELECT 1
	FROM blocked_users b
	WHERE b.event_id = m.event_id
		AND b.user_id IN (m.user_a_id, m.user_b_id)
)`).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(rules.ClampOffset(q.Offset)))
	if q.EventID != nil {
		builder = builder.Where(sq.Eq{"m.event_id": *q.EventID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0, q.Limit)
	for rows.Next() {
		item, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var match model.Match
	err := row.Scan(
		&match.ID,
		&match.EventID,
		&match.UserAID,
		&match.UserBID,
		&match.CreatedAt,
	)
	return match, err
}
