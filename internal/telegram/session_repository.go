package telegram

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sessiondb "shopping-planner/internal/telegram/session_db"
)

// ChatSession is the sign-in of a chat that survives restarts of the bot.
type ChatSession struct {
	ChatID    int64
	UserID    string
	Token     string
	WeekIndex int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository provides access to chat session persistence
type SessionRepository struct {
	queries *sessiondb.Queries
	db      *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{
		queries: sessiondb.New(db),
		db:      db,
	}
}

// Save creates or replaces the session of a chat
func (sr *SessionRepository) Save(ctx context.Context, s ChatSession) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return sr.queries.UpsertChatSession(ctx, sessiondb.UpsertChatSessionParams{
		ChatID:    s.ChatID,
		UserID:    s.UserID,
		Token:     s.Token,
		WeekIndex: int64(s.WeekIndex),
		ExpiresAt: s.ExpiresAt.UTC(),
		CreatedAt: created.UTC(),
	})
}

// GetActive retrieves the session of a chat unless it expired before now
func (sr *SessionRepository) GetActive(ctx context.Context, chatID int64, now time.Time) (*ChatSession, error) {
	row, err := sr.queries.GetActiveChatSession(ctx, sessiondb.GetActiveChatSessionParams{
		ChatID:    chatID,
		ExpiresAt: now.UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &ChatSession{
		ChatID:    row.ChatID,
		UserID:    row.UserID,
		Token:     row.Token,
		WeekIndex: int(row.WeekIndex),
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// SetWeek remembers the week a chat is looking at
func (sr *SessionRepository) SetWeek(ctx context.Context, chatID int64, index int) error {
	return sr.queries.SetChatWeek(ctx, sessiondb.SetChatWeekParams{
		WeekIndex: int64(index),
		ChatID:    chatID,
	})
}

// Delete removes the session of a chat
func (sr *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	return sr.queries.DeleteChatSession(ctx, chatID)
}

// CleanupExpired removes all expired sessions
func (sr *SessionRepository) CleanupExpired(ctx context.Context) (int64, error) {
	return sr.queries.CleanupExpiredChatSessions(ctx, time.Now().UTC())
}
