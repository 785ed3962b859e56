package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
)

var ErrDuplicateSwipe = errors.New("swipe already recorded")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// Create commits the swipe on its own so that a reciprocal check performed
// afterwards by either side observes it.
func (r *SwipeRepo) Create(ctx context.Context, swipe model.SwipeAction) (model.SwipeAction, error) {
	if swipe.EventID <= 0 || swipe.ActorUserID <= 0 || swipe.TargetUserID <= 0 || swipe.Decision == "" {
		return model.SwipeAction{}, fmt.Errorf("invalid swipe payload")
	}
	if r.pool == nil {
		return model.SwipeAction{}, ErrPoolUnavailable
	}
	if swipe.CreatedAt.IsZero() {
		swipe.CreatedAt = time.Now().UTC()
	}

	var rec model.SwipeAction
	var decision string
	err := r.pool.QueryRow(ctx, `
INSERT INTO swipes (
	event_id,
	actor_user_id,
	target_user_id,
	decision,
	created_at
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, event_id, actor_user_id, target_user_id, decision, created_at
`, swipe.EventID, swipe.ActorUserID, swipe.TargetUserID, string(swipe.Decision), swipe.CreatedAt.UTC()).Scan(
		&rec.ID,
		&rec.EventID,
		&rec.ActorUserID,
		&rec.TargetUserID,
		&decision,
		&rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.SwipeAction{}, ErrDuplicateSwipe
		}
		return model.SwipeAction{}, fmt.Errorf("create swipe: %w", err)
	}
	rec.Decision = enums.Decision(decision)

	return rec, nil
}

func (r *SwipeRepo) HasDecision(ctx context.Context, eventID, actorUserID, targetUserID int64, decision enums.Decision) (bool, error) {
	if eventID <= 0 || actorUserID <= 0 || targetUserID <= 0 {
		return false, fmt.Errorf("invalid swipe lookup")
	}
	if r.pool == nil {
		return false, ErrPoolUnavailable
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes
	WHERE event_id = $1
		AND actor_user_id = $2
		AND target_user_id = $3
		AND decision = $4
)
`, eventID, actorUserID, targetUserID, string(decision)).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup swipe decision: %w", err)
	}

	return exists, nil
}

// Decision returns the stored decision of actor about target, if any.
func (r *SwipeRepo) Decision(ctx context.Context, eventID, actorUserID, targetUserID int64) (enums.Decision, bool, error) {
	if eventID <= 0 || actorUserID <= 0 || targetUserID <= 0 {
		return "", false, fmt.Errorf("invalid swipe lookup")
	}
	if r.pool == nil {
		return "", false, ErrPoolUnavailable
	}

	var decision string
	err := r.pool.QueryRow(ctx, `
SELECT decision
FROM swipes
WHERE event_id = $1
	AND actor_user_id = $2
	AND target_user_id = $3
`, eventID, actorUserID, targetUserID).Scan(&decision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get swipe decision: %w", err)
	}

	return enums.Decision(decision), true, nil
}
