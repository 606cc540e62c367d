// source: chat_sessions.sql

package sessiondb

import (
	"context"
	"time"
)

const cleanupExpiredChatSessions = `-- name: CleanupExpiredChatSessions :execrows
DELETE FROM chat_sessions WHERE expires_at <= ?
`

func (q *Queries) CleanupExpiredChatSessions(ctx context.Context, expiresAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, cleanupExpiredChatSessions, expiresAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteChatSession = `-- name: DeleteChatSession :exec
DELETE FROM chat_sessions WHERE chat_id = ?
`

func (q *Queries) DeleteChatSession(ctx context.Context, chatID int64) error {
	_, err := q.db.ExecContext(ctx, deleteChatSession, chatID)
	return err
}

const getActiveChatSession = `-- name: GetActiveChatSession :one
SELECT chat_id, user_id, token, week_index, expires_at, created_at
FROM chat_sessions
WHERE chat_id = ? AND expires_at > ?
`

type GetActiveChatSessionParams struct {
	ChatID    int64
	ExpiresAt time.Time
}

func (q *Queries) GetActiveChatSession(ctx context.Context, arg GetActiveChatSessionParams) (ChatSession, error) {
	row := q.db.QueryRowContext(ctx, getActiveChatSession, arg.ChatID, arg.ExpiresAt)
	var i ChatSession
	err := row.Scan(
		&i.ChatID,
		&i.UserID,
		&i.Token,
		&i.WeekIndex,
		&i.ExpiresAt,
		&i.CreatedAt,
	)
	return i, err
}

const setChatWeek = `-- name: SetChatWeek :exec
UPDATE chat_sessions SET week_index = ? WHERE chat_id = ?
`

type SetChatWeekParams struct {
	WeekIndex int64
	ChatID    int64
}

func (q *Queries) SetChatWeek(ctx context.Context, arg SetChatWeekParams) error {
	_, err := q.db.ExecContext(ctx, setChatWeek, arg.WeekIndex, arg.ChatID)
	return err
}

const upsertChatSession = `-- name: UpsertChatSession :exec
INSERT INTO chat_sessions (chat_id, user_id, token, week_index, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(chat_id) DO UPDATE SET
    user_id = excluded.user_id,
    token = excluded.token,
    week_index = excluded.week_index,
    expires_at = excluded.expires_at
`

type UpsertChatSessionParams struct {
	ChatID    int64
	UserID    string
	Token     string
	WeekIndex int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (q *Queries) UpsertChatSession(ctx context.Context, arg UpsertChatSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertChatSession,
		arg.ChatID,
		arg.UserID,
		arg.Token,
		arg.WeekIndex,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return err
}
