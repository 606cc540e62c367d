package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopping-planner/internal/planner/plan_db"
)

// PlanSummary describes a stored week without its document.
type PlanSummary struct {
	WeekStart string
	UpdatedAt time.Time
}

// PlanRepository is a database-backed repository holding one plan document per
// (owner, week).
type PlanRepository struct {
	queries *plan_db.Queries
	db      *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		queries: plan_db.New(d),
		db:      d,
	}
}

// Load returns the owner's plan for the week, or nil when no row exists.
func (r *PlanRepository) Load(ctx context.Context, ownerID, weekStart string) (*Stored, error) {
	row, err := r.queries.GetMealPlan(ctx, plan_db.GetMealPlanParams{
		OwnerID:   ownerID,
		WeekStart: weekStart,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal plan for %s/%s: %w", ownerID, weekStart, err)
	}

	plan, err := DecodeWeek([]byte(row.Plan))
	if err != nil {
		return nil, fmt.Errorf("stored meal plan for %s/%s is corrupt: %w", ownerID, weekStart, err)
	}
	return &Stored{SavedAt: row.UpdatedAt.UTC(), Plan: plan}, nil
}

// Save upserts the owner's plan for the week. Saving the same document twice only
// moves updated_at.
func (r *PlanRepository) Save(ctx context.Context, ownerID, weekStart string, plan WeekPlan, savedAt time.Time) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	return r.queries.UpsertMealPlan(ctx, plan_db.UpsertMealPlanParams{
		OwnerID:   ownerID,
		WeekStart: weekStart,
		Plan:      string(data),
		UpdatedAt: savedAt.UTC(),
	})
}

// ListRecentByOwner returns the owner's most recent stored weeks, newest week first.
func (r *PlanRepository) ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]PlanSummary, error) {
	rows, err := r.queries.ListRecentMealPlansByOwner(ctx, plan_db.ListRecentMealPlansByOwnerParams{
		OwnerID: ownerID,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for owner %s: %w", ownerID, err)
	}

	var out []PlanSummary
	for _, row := range rows {
		out = append(out, PlanSummary{WeekStart: row.WeekStart, UpdatedAt: row.UpdatedAt.UTC()})
	}
	return out, nil
}
