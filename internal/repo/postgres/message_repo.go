package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, match_id, sender_user_id, content, sent_at, is_read, is_liked`

type MessageRepo struct {
	pool *pgxpool.Pool
}

type MessageCreate struct {
	MatchID         int64
	SenderUserID    int64
	Content         string
	ClientMessageID *uuid.UUID
	SentAt          time.Time
}

type ConversationListQuery struct {
	UserID  int64
	EventID *int64
	Limit   int
	Offset  int
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Create appends a message. A repeated client message id from the same sender
// in the same match returns the stored message with created=false.
func (r *MessageRepo) Create(ctx context.Context, in MessageCreate) (model.Message, bool, error) {
	if in.MatchID <= 0 || in.SenderUserID <= 0 || in.Content == "" {
		return model.Message{}, false, fmt.Errorf("invalid message payload")
	}
	if r.pool == nil {
		return model.Message{}, false, ErrPoolUnavailable
	}
	if in.SentAt.IsZero() {
		in.SentAt = time.Now().UTC()
	}

	var clientID any
	if in.ClientMessageID != nil {
		clientID = in.ClientMessageID.String()
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, `
INSERT INTO messages (
	match_id,
	sender_user_id,
	content,
	client_message_id,
	sent_at,
	is_read,
	is_liked
) VALUES ($1, $2, $3, $4::uuid, $5, FALSE, FALSE)
ON CONFLICT (match_id, sender_user_id, client_message_id) DO NOTHING
RETURNING `+messageColumns, in.MatchID, in.SenderUserID, in.Content, clientID, in.SentAt.UTC()))
	if err == nil {
		return msg, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || in.ClientMessageID == nil {
		return model.Message{}, false, fmt.Errorf("create message: %w", err)
	}

	existing, found, err := r.GetByClientID(ctx, in.MatchID, in.SenderUserID, *in.ClientMessageID)
	if err != nil {
		return model.Message{}, false, fmt.Errorf("read retried message: %w", err)
	}
	if !found {
		return model.Message{}, false, fmt.Errorf("read retried message: %w", ErrMessageNotFound)
	}
	return existing, false, nil
}

// GetByClientID finds a message the sender already stored under clientID.
func (r *MessageRepo) GetByClientID(ctx context.Context, matchID, senderUserID int64, clientID uuid.UUID) (model.Message, bool, error) {
	if matchID <= 0 || senderUserID <= 0 {
		return model.Message{}, false, fmt.Errorf("invalid message lookup")
	}
	if r.pool == nil {
		return model.Message{}, false, ErrPoolUnavailable
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1 AND sender_user_id = $2 AND client_message_id = $3::uuid
`, matchID, senderUserID, clientID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, false, nil
		}
		return model.Message{}, false, fmt.Errorf("get message by client id: %w", err)
	}
	return msg, true, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, messageID int64) (model.Message, error) {
	if messageID <= 0 {
		return model.Message{}, fmt.Errorf("invalid message id")
	}
	if r.pool == nil {
		return model.Message{}, ErrPoolUnavailable
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE id = $1
`, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}

	return msg, nil
}

// ListPage returns up to limit messages newest first. With beforeID only ids
// strictly below the cursor are considered, so later inserts never shift a page.
func (r *MessageRepo) ListPage(ctx context.Context, matchID int64, beforeID *int64, limit int) ([]model.Message, error) {
	if matchID <= 0 {
		return nil, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = rules.DefaultPageLimit
	}
	if r.pool == nil {
		return nil, ErrPoolUnavailable
	}

	builder := psql.
		Select("id", "match_id", "sender_user_id", "content", "sent_at", "is_read", "is_liked").
		From("messages").
		Where(sq.Eq{"match_id": matchID}).
		OrderBy("id DESC").
		Limit(uint64(limit))
	if beforeID != nil {
		builder = builder.Where(sq.Lt{"id": *beforeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build message page query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0, limit)
	for rows.Next() {
		item, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, messageID int64) (model.Message, error) {
	return r.updateFlag(ctx, messageID, `
UPDATE messages
SET is_read = TRUE
WHERE id = $1
RETURNING `+messageColumns)
}

func (r *MessageRepo) ToggleLike(ctx context.Context, messageID int64) (model.Message, error) {
	return r.updateFlag(ctx, messageID, `
UPDATE messages
SET is_liked = NOT is_liked
WHERE id = $1
RETURNING `+messageColumns)
}

func (r *MessageRepo) updateFlag(ctx context.Context, messageID int64, query string) (model.Message, error) {
	if messageID <= 0 {
		return model.Message{}, fmt.Errorf("invalid message id")
	}
	if r.pool == nil {
		return model.Message{}, ErrPoolUnavailable
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, fmt.Errorf("update message flag: %w", err)
	}

	return msg, nil
}

// ListConversations returns the user's matches with the newest message and the
// number of unread messages addressed to the user. Blocked pairs are left out.
func (r *MessageRepo) ListConversations(ctx context.Context, q ConversationListQuery) ([]model.Conversation, error) {
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
		Select(
			"m.id", "m.event_id", "m.user_a_id", "m.user_b_id", "m.created_at",
			"lm.id", "lm.sender_user_id", "lm.content", "lm.sent_at", "lm.is_read", "lm.is_liked",
		).
		Column(sq.Expr(`(
	SELECT COUNT(*)
	FROM messages u
	WHERE u.match_id = m.id AND u.sender_user_id <> ? AND u.is_read = FALSE
)`, q.UserID)).
		From("matches m").
		LeftJoin(`LATERAL (
	SELECT id, sender_user_id, content, sent_at, is_read, is_liked
	FROM messages
	WHERE match_id = m.id
	ORDER BY id DESC
	LIMIT 1
) lm ON TRUE`).
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
		OrderBy("m.event_id ASC", "COALESCE(lm.sent_at, m.created_at) DESC", "m.id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(rules.ClampOffset(q.Offset)))
	if q.EventID != nil {
		builder = builder.Where(sq.Eq{"m.event_id": *q.EventID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build conversations query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]model.Conversation, 0, q.Limit)
	for rows.Next() {
		var (
			item        model.Conversation
			lastID      *int64
			lastSender  *int64
			lastContent *string
			lastSentAt  *time.Time
			lastRead    *bool
			lastLiked   *bool
			unread      int64
		)
		if err := rows.Scan(
			&item.Match.ID,
			&item.Match.EventID,
			&item.Match.UserAID,
			&item.Match.UserBID,
			&item.Match.CreatedAt,
			&lastID,
			&lastSender,
			&lastContent,
			&lastSentAt,
			&lastRead,
			&lastLiked,
			&unread,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		item.CounterpartID, _ = item.Match.Counterpart(q.UserID)
		item.UnreadCount = int(unread)
		if lastID != nil {
			item.LastMessage = &model.Message{
				ID:           *lastID,
				MatchID:      item.Match.ID,
				SenderUserID: derefInt64(lastSender),
				Content:      derefString(lastContent),
				IsRead:       derefBool(lastRead),
				IsLiked:      derefBool(lastLiked),
			}
			if lastSentAt != nil {
				item.LastMessage.SentAt = *lastSentAt
			}
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conversations: %w", rows.Err())
	}

	return items, nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var msg model.Message
	err := row.Scan(
		&msg.ID,
		&msg.MatchID,
		&msg.SenderUserID,
		&msg.Content,
		&msg.SentAt,
		&msg.IsRead,
		&msg.IsLiked,
	)
	return msg, err
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefBool(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}
