package metricsdb

import (
	"time"
)

type SyncEvent struct {
	ID        int64
	Operation string
	OwnerID   string
	WeekStart string
	Outcome   string
	LatencyMs int64
	Timestamp time.Time
}
