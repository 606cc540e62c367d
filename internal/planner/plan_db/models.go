package plan_db

import (
	"time"
)

type MealPlan struct {
	OwnerID   string
	WeekStart string
	Plan      string
	UpdatedAt time.Time
}
