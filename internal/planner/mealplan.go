package planner

import (
	"strings"
	"time"
)

// Unit is the measurement unit of a planned item.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
	UnitCount      Unit = "ks"
)

// ParseUnit recognises a unit token case-insensitively.
func ParseUnit(s string) (Unit, bool) {
	switch Unit(strings.ToLower(s)) {
	case UnitGram:
		return UnitGram, true
	case UnitMilliliter:
		return UnitMilliliter, true
	case UnitCount:
		return UnitCount, true
	}
	return "", false
}

// ItemSource tells how a planned item entered the plan.
type ItemSource string

const (
	SourceRecipe ItemSource = "recipe"
	SourceExtra  ItemSource = "extra"
)

// Meal names one of the three meal slots of a day.
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// Meals lists the slots in display order.
var Meals = []Meal{MealBreakfast, MealLunch, MealDinner}

// ParseMeal recognises a meal name.
func ParseMeal(s string) (Meal, bool) {
	m := Meal(strings.ToLower(s))
	for _, known := range Meals {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// PlannedItem is a single line of the shopping list.
type PlannedItem struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Vendor  string     `json:"vendor,omitempty"`
	Amount  float64    `json:"amount"`
	Unit    Unit       `json:"unit"`
	Checked bool       `json:"checked"`
	Source  ItemSource `json:"source"`
}

// MealSlot holds the recipe assigned to a meal and the items compiled from it.
type MealSlot struct {
	RecipeID string        `json:"recipeId,omitempty"`
	Items    []PlannedItem `json:"items"`
}

// DayPlan is one day of the week: three meal slots plus manually added items.
type DayPlan struct {
	Breakfast MealSlot      `json:"breakfast"`
	Lunch     MealSlot      `json:"lunch"`
	Dinner    MealSlot      `json:"dinner"`
	Extra     []PlannedItem `json:"extra"`
}

// Slot returns a pointer to the slot for meal, or nil for an unknown meal.
func (d *DayPlan) Slot(m Meal) *MealSlot {
	switch m {
	case MealBreakfast:
		return &d.Breakfast
	case MealLunch:
		return &d.Lunch
	case MealDinner:
		return &d.Dinner
	}
	return nil
}

// Items returns every item of the day: slots in meal order, then extras.
func (d DayPlan) Items() []PlannedItem {
	var out []PlannedItem
	out = append(out, d.Breakfast.Items...)
	out = append(out, d.Lunch.Items...)
	out = append(out, d.Dinner.Items...)
	out = append(out, d.Extra...)
	return out
}

// WeekPlan maps a day's ISO date to its plan.
type WeekPlan map[string]DayPlan

// Stored is a plan document read back from a store together with its save time.
type Stored struct {
	SavedAt time.Time
	Plan    WeekPlan
}
