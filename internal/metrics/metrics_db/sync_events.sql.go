// source: sync_events.sql

package metricsdb

import (
	"context"
	"time"
)

const cleanupSyncEvents = `-- name: CleanupSyncEvents :execrows
DELETE FROM sync_events WHERE timestamp < ?
`

func (q *Queries) CleanupSyncEvents(ctx context.Context, timestamp time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, cleanupSyncEvents, timestamp)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countSyncEvents = `-- name: CountSyncEvents :one
SELECT COUNT(*) FROM sync_events
`

func (q *Queries) CountSyncEvents(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSyncEvents)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getDailySyncSummary = `-- name: GetDailySyncSummary :many
SELECT
    substr(timestamp, 1, 10) AS day,
    operation,
    COUNT(*) AS total,
    CAST(COALESCE(SUM(CASE WHEN outcome = 'error' THEN 1 ELSE 0 END), 0) AS INTEGER) AS failures,
    CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER) AS avg_latency_ms
FROM sync_events
WHERE timestamp >= ?
GROUP BY day, operation
ORDER BY day DESC, operation
`

type GetDailySyncSummaryRow struct {
	Day          string
	Operation    string
	Total        int64
	Failures     int64
	AvgLatencyMs int64
}

func (q *Queries) GetDailySyncSummary(ctx context.Context, timestamp time.Time) ([]GetDailySyncSummaryRow, error) {
	rows, err := q.db.QueryContext(ctx, getDailySyncSummary, timestamp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetDailySyncSummaryRow
	for rows.Next() {
		var i GetDailySyncSummaryRow
		if err := rows.Scan(
			&i.Day,
			&i.Operation,
			&i.Total,
			&i.Failures,
			&i.AvgLatencyMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertSyncEvent = `-- name: InsertSyncEvent :exec
INSERT INTO sync_events (operation, owner_id, week_start, outcome, latency_ms, timestamp)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertSyncEventParams struct {
	Operation string
	OwnerID   string
	WeekStart string
	Outcome   string
	LatencyMs int64
	Timestamp time.Time
}

func (q *Queries) InsertSyncEvent(ctx context.Context, arg InsertSyncEventParams) error {
	_, err := q.db.ExecContext(ctx, insertSyncEvent,
		arg.Operation,
		arg.OwnerID,
		arg.WeekStart,
		arg.Outcome,
		arg.LatencyMs,
		arg.Timestamp,
	)
	return err
}
