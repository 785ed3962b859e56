package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
)

var ErrRegistrationNotFound = errors.New("registration not found")

type BlockRepo struct {
	pool *pgxpool.Pool
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

func (r *BlockRepo) IsBlocked(ctx context.Context, eventID, userID int64) (bool, error) {
	if eventID <= 0 || userID <= 0 {
		return false, fmt.Errorf("invalid block lookup")
	}
	if r.pool == nil {
		return false, ErrPoolUnavailable
	}

	var blocked bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM blocked_users
	WHERE event_id = $1 AND user_id = $2
)
`, eventID, userID).Scan(&blocked); err != nil {
		return false, fmt.Errorf("lookup blocked user: %w", err)
	}

	return blocked, nil
}

// Upsert blocks a registered user. The registration row is locked for the
// duration of the insert so a concurrent unregistration cannot orphan the block.
func (r *BlockRepo) Upsert(ctx context.Context, block model.BlockedUser) (model.BlockedUser, error) {
	if block.EventID <= 0 || block.UserID <= 0 {
		return model.BlockedUser{}, fmt.Errorf("invalid block payload")
	}
	if r.pool == nil {
		return model.BlockedUser{}, ErrPoolUnavailable
	}
	if block.BlockedAt.IsZero() {
		block.BlockedAt = time.Now().UTC()
	}

	var saved model.BlockedUser
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var locked int
		if err := tx.QueryRow(txCtx, `
SELECT 1
FROM registrations
WHERE event_id = $1 AND user_id = $2
FOR SHARE
`, block.EventID, block.UserID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRegistrationNotFound
			}
			return fmt.Errorf("lock registration: %w", err)
		}

		if err := tx.QueryRow(txCtx, `
INSERT INTO blocked_users (
	event_id,
	user_id,
	reason,
	blocked_by_user_id,
	blocked_at
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id, user_id) DO UPDATE SET
	reason = EXCLUDED.reason
RETURNING event_id, user_id, reason, blocked_by_user_id, blocked_at
`, block.EventID, block.UserID, strings.TrimSpace(block.Reason), block.BlockedByUserID, block.BlockedAt.UTC()).Scan(
			&saved.EventID,
			&saved.UserID,
			&saved.Reason,
			&saved.BlockedByUserID,
			&saved.BlockedAt,
		); err != nil {
			return fmt.Errorf("upsert blocked user: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.BlockedUser{}, err
	}

	return saved, nil
}

func (r *BlockRepo) Delete(ctx context.Context, eventID, userID int64) (bool, error) {
	if eventID <= 0 || userID <= 0 {
		return false, fmt.Errorf("invalid unblock payload")
	}
	if r.pool == nil {
		return false, ErrPoolUnavailable
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM blocked_users
WHERE event_id = $1 AND user_id = $2
`, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("delete blocked user: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *BlockRepo) List(ctx context.Context, eventID int64, limit, offset int) ([]model.BlockedUser, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("invalid event id")
	}
	if r.pool == nil {
		return nil, ErrPoolUnavailable
	}

	rows, err := r.pool.Query(ctx, `
SELECT event_id, user_id, reason, blocked_by_user_id, blocked_at
FROM blocked_users
WHERE event_id = $1
ORDER BY blocked_at DESC, user_id DESC
LIMIT $2 OFFSET $3
`, eventID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	defer rows.Close()

	items := make([]model.BlockedUser, 0, limit)
	for rows.Next() {
		var item model.BlockedUser
		if err := rows.Scan(
			&item.EventID,
			&item.UserID,
			&item.Reason,
			&item.BlockedByUserID,
			&item.BlockedAt,
		); err != nil {
			return nil, fmt.Errorf("scan blocked user: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate blocked users: %w", rows.Err())
	}

	return items, nil
}
