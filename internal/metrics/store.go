package metrics

import (
	"context"
	"database/sql"
	"log"
	"time"

	metricsdb "shopping-planner/internal/metrics/metrics_db"
)

// SyncEvent records one remote operation of a sync session.
type SyncEvent struct {
	Operation string
	OwnerID   string
	WeekStart string
	Outcome   string
	LatencyMS int64
	Timestamp time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	queries *metricsdb.Queries
	db      *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		queries: metricsdb.New(db),
		db:      db,
	}
}

// Record saves an event to the database.
func (s *Store) Record(ctx context.Context, e SyncEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return s.queries.InsertSyncEvent(ctx, metricsdb.InsertSyncEventParams{
		Operation: e.Operation,
		OwnerID:   e.OwnerID,
		WeekStart: e.WeekStart,
		Outcome:   e.Outcome,
		LatencyMs: e.LatencyMS,
		Timestamp: ts.UTC(),
	})
}

// RecordSync lets a sync controller report into the store. Failures are only logged.
func (s *Store) RecordSync(ctx context.Context, op, ownerID, weekISO, outcome string, latency time.Duration) {
	err := s.Record(ctx, SyncEvent{
		Operation: op,
		OwnerID:   ownerID,
		WeekStart: weekISO,
		Outcome:   outcome,
		LatencyMS: latency.Milliseconds(),
	})
	if err != nil {
		log.Printf("metrics: failed to record %s event: %v", op, err)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DailySummary aggregates the events of one operation on one day.
type DailySummary struct {
	Date         string
	Operation    string
	Total        int
	Failures     int
	AvgLatencyMS int64
}

// GetDailySummary retrieves per-day totals for the last N days, newest first.
func (s *Store) GetDailySummary(ctx context.Context, days int) ([]DailySummary, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.queries.GetDailySyncSummary(ctx, since)
	if err != nil {
		return nil, err
	}

	results := make([]DailySummary, 0, len(rows))
	for _, r := range rows {
		results = append(results, DailySummary{
			Date:         r.Day,
			Operation:    r.Operation,
			Total:        int(r.Total),
			Failures:     int(r.Failures),
			AvgLatencyMS: r.AvgLatencyMs,
		})
	}
	return results, nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.queries.CountSyncEvents(ctx)
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	return s.queries.CleanupSyncEvents(ctx, threshold)
}
