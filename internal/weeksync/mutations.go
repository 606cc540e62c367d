package weeksync

import (
	"context"

	"shopping-planner/internal/planner"
)

// AssignRecipe puts a recipe into a meal slot, compiling its ingredient lines into items.
func (c *Controller) AssignRecipe(ctx context.Context, day string, meal planner.Meal, recipeID string, lines []string) error {
	return c.Update(ctx, func(doc planner.WeekPlan) (planner.WeekPlan, error) {
		return planner.AssignRecipe(doc, day, meal, recipeID, lines)
	})
}

// ClearMeal empties a meal slot.
func (c *Controller) ClearMeal(ctx context.Context, day string, meal planner.Meal) error {
	return c.Update(ctx, func(doc planner.WeekPlan) (planner.WeekPlan, error) {
		return planner.ClearMeal(doc, day, meal)
	})
}

// ToggleItem flips the checked flag of an item.
func (c *Controller) ToggleItem(ctx context.Context, day, itemID string) error {
	return c.Update(ctx, func(doc planner.WeekPlan) (planner.WeekPlan, error) {
		return planner.ToggleItem(doc, day, itemID)
	})
}

// AddExtra adds a manual item to a day.
func (c *Controller) AddExtra(ctx context.Context, day, name, vendor string, amount float64, unit planner.Unit) (planner.PlannedItem, error) {
	var added planner.PlannedItem
	err := c.Update(ctx, func(doc planner.WeekPlan) (planner.WeekPlan, error) {
		next, item, err := planner.AddExtra(doc, day, name, vendor, amount, unit)
		added = item
		return next, err
	})
	return added, err
}

// RemoveExtra deletes a manual item.
func (c *Controller) RemoveExtra(ctx context.Context, day, itemID string) error {
	return c.Update(ctx, func(doc planner.WeekPlan) (planner.WeekPlan, error) {
		return planner.RemoveExtra(doc, day, itemID)
	})
}
