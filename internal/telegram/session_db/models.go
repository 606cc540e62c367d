package sessiondb

import (
	"time"
)

type ChatSession struct {
	ChatID    int64
	UserID    string
	Token     string
	WeekIndex int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
