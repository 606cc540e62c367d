package planner

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

var (
	ErrUnknownMeal   = errors.New("unknown meal")
	ErrUnknownItem   = errors.New("item not found")
	ErrRecipeItem    = errors.New("recipe items are replaced with the recipe, not removed one by one")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrEmptyName     = errors.New("item name is empty")
)

// ExtraSection is the section name used for manually added items in ItemRef.
const ExtraSection = "extra"

// ItemRef locates an item inside a plan.
type ItemRef struct {
	Day     string
	Section string // a Meal or ExtraSection
	Item    PlannedItem
}

// NewItem creates an unchecked item with a fresh id.
func NewItem(name, vendor string, amount float64, unit Unit, source ItemSource) PlannedItem {
	return PlannedItem{
		ID:     uuid.NewString(),
		Name:   name,
		Vendor: vendor,
		Amount: amount,
		Unit:   unit,
		Source: source,
	}
}

// ItemsFromLines compiles recipe ingredient lines into planned items.
func ItemsFromLines(lines []string) []PlannedItem {
	items := make([]PlannedItem, 0, len(lines))
	for _, line := range lines {
		p := ParseIngredientLine(line)
		items = append(items, NewItem(p.Name, p.Vendor, p.Amount, p.Unit, SourceRecipe))
	}
	return items
}

// AssignRecipe replaces the slot's recipe and recompiles its whole item list.
func AssignRecipe(doc WeekPlan, day string, meal Meal, recipeID string, lines []string) (WeekPlan, error) {
	out := Clone(doc)
	d := dayOrEmpty(out, day)
	slot := d.Slot(meal)
	if slot == nil {
		return nil, ErrUnknownMeal
	}
	*slot = MealSlot{RecipeID: recipeID, Items: ItemsFromLines(lines)}
	out[day] = d
	return out, nil
}

// ClearMeal removes the recipe and its items from a slot.
func ClearMeal(doc WeekPlan, day string, meal Meal) (WeekPlan, error) {
	out := Clone(doc)
	d := dayOrEmpty(out, day)
	slot := d.Slot(meal)
	if slot == nil {
		return nil, ErrUnknownMeal
	}
	*slot = MealSlot{Items: []PlannedItem{}}
	out[day] = d
	return out, nil
}

// ToggleItem flips the checked flag of the item with itemID on day.
func ToggleItem(doc WeekPlan, day, itemID string) (WeekPlan, error) {
	out := Clone(doc)
	d, ok := out[day]
	if !ok {
		return nil, ErrUnknownItem
	}

	lists := [][]PlannedItem{d.Breakfast.Items, d.Lunch.Items, d.Dinner.Items, d.Extra}
	for _, list := range lists {
		for i := range list {
			if list[i].ID == itemID {
				list[i].Checked = !list[i].Checked
				out[day] = d
				return out, nil
			}
		}
	}
	return nil, ErrUnknownItem
}

// AddExtra appends a manually added item to day.
func AddExtra(doc WeekPlan, day, name, vendor string, amount float64, unit Unit) (WeekPlan, PlannedItem, error) {
	if name == "" {
		return nil, PlannedItem{}, ErrEmptyName
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, PlannedItem{}, ErrInvalidAmount
	}
	if _, ok := ParseUnit(string(unit)); !ok {
		unit = UnitCount
	}

	out := Clone(doc)
	d := dayOrEmpty(out, day)
	item := NewItem(name, vendor, amount, unit, SourceExtra)
	d.Extra = append(d.Extra, item)
	out[day] = d
	return out, item, nil
}

// RemoveExtra deletes a manually added item. Recipe-derived items cannot be removed.
func RemoveExtra(doc WeekPlan, day, itemID string) (WeekPlan, error) {
	out := Clone(doc)
	d, ok := out[day]
	if !ok {
		return nil, ErrUnknownItem
	}

	for i, it := range d.Extra {
		if it.ID == itemID {
			d.Extra = append(d.Extra[:i:i], d.Extra[i+1:]...)
			out[day] = d
			return out, nil
		}
	}
	for _, it := range d.Items() {
		if it.ID == itemID {
			return nil, ErrRecipeItem
		}
	}
	return nil, ErrUnknownItem
}

// FindItem looks an item up by id anywhere in the plan.
func FindItem(doc WeekPlan, itemID string) (ItemRef, bool) {
	for day, d := range doc {
		for _, m := range Meals {
			for _, it := range d.Slot(m).Items {
				if it.ID == itemID {
					return ItemRef{Day: day, Section: string(m), Item: it}, true
				}
			}
		}
		for _, it := range d.Extra {
			if it.ID == itemID {
				return ItemRef{Day: day, Section: ExtraSection, Item: it}, true
			}
		}
	}
	return ItemRef{}, false
}

func dayOrEmpty(doc WeekPlan, day string) DayPlan {
	if d, ok := doc[day]; ok {
		return normalizeDay(d)
	}
	return EmptyDay()
}
