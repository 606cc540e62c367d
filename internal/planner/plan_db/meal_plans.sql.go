// source: meal_plans.sql

package plan_db

import (
	"context"
	"time"
)

const getMealPlan = `-- name: GetMealPlan :one
SELECT owner_id, week_start, plan, updated_at
FROM meal_plans
WHERE owner_id = ? AND week_start = ?
`

type GetMealPlanParams struct {
	OwnerID   string
	WeekStart string
}

func (q *Queries) GetMealPlan(ctx context.Context, arg GetMealPlanParams) (MealPlan, error) {
	row := q.db.QueryRowContext(ctx, getMealPlan, arg.OwnerID, arg.WeekStart)
	var i MealPlan
	err := row.Scan(
		&i.OwnerID,
		&i.WeekStart,
		&i.Plan,
		&i.UpdatedAt,
	)
	return i, err
}

const listRecentMealPlansByOwner = `-- name: ListRecentMealPlansByOwner :many
SELECT owner_id, week_start, plan, updated_at
FROM meal_plans
WHERE owner_id = ?
ORDER BY week_start DESC
LIMIT ?
`

type ListRecentMealPlansByOwnerParams struct {
	OwnerID string
	Limit   int64
}

func (q *Queries) ListRecentMealPlansByOwner(ctx context.Context, arg ListRecentMealPlansByOwnerParams) ([]MealPlan, error) {
	rows, err := q.db.QueryContext(ctx, listRecentMealPlansByOwner, arg.OwnerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MealPlan
	for rows.Next() {
		var i MealPlan
		if err := rows.Scan(
			&i.OwnerID,
			&i.WeekStart,
			&i.Plan,
			&i.UpdatedAt,
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

const upsertMealPlan = `-- name: UpsertMealPlan :exec
INSERT INTO meal_plans (owner_id, week_start, plan, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (owner_id, week_start) DO UPDATE
SET plan = excluded.plan, updated_at = excluded.updated_at
`

type UpsertMealPlanParams struct {
	OwnerID   string
	WeekStart string
	Plan      string
	UpdatedAt time.Time
}

func (q *Queries) UpsertMealPlan(ctx context.Context, arg UpsertMealPlanParams) error {
	_, err := q.db.ExecContext(ctx, upsertMealPlan,
		arg.OwnerID,
		arg.WeekStart,
		arg.Plan,
		arg.UpdatedAt,
	)
	return err
}
