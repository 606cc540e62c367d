package planner

import (
	"encoding/json"
	"fmt"
)

// EmptyDay returns a day with three empty meal slots and no extras.
func EmptyDay() DayPlan {
	return DayPlan{
		Breakfast: MealSlot{Items: []PlannedItem{}},
		Lunch:     MealSlot{Items: []PlannedItem{}},
		Dinner:    MealSlot{Items: []PlannedItem{}},
		Extra:     []PlannedItem{},
	}
}

// EmptyWeek returns a plan holding an empty day for every key in days.
func EmptyWeek(days []string) WeekPlan {
	plan := make(WeekPlan, len(days))
	for _, d := range days {
		plan[d] = EmptyDay()
	}
	return plan
}

// Normalize returns a repaired copy of doc: every expected day exists, every slot and
// extras list is non-nil, and unknown units or sources fall back to their defaults.
// Keys outside days are carried over unchanged apart from the same repairs.
func Normalize(doc WeekPlan, days []string) WeekPlan {
	out := make(WeekPlan, len(days)+len(doc))
	for key, day := range doc {
		out[key] = normalizeDay(day)
	}
	for _, d := range days {
		if _, ok := out[d]; !ok {
			out[d] = EmptyDay()
		}
	}
	return out
}

func normalizeDay(d DayPlan) DayPlan {
	return DayPlan{
		Breakfast: normalizeSlot(d.Breakfast),
		Lunch:     normalizeSlot(d.Lunch),
		Dinner:    normalizeSlot(d.Dinner),
		Extra:     normalizeItems(d.Extra),
	}
}

func normalizeSlot(s MealSlot) MealSlot {
	return MealSlot{RecipeID: s.RecipeID, Items: normalizeItems(s.Items)}
}

func normalizeItems(items []PlannedItem) []PlannedItem {
	out := make([]PlannedItem, 0, len(items))
	for _, it := range items {
		if u, ok := ParseUnit(string(it.Unit)); ok {
			it.Unit = u
		} else {
			it.Unit = UnitCount
		}
		if it.Source != SourceRecipe && it.Source != SourceExtra {
			it.Source = SourceExtra
		}
		out = append(out, it)
	}
	return out
}

// Clone returns a deep copy of doc.
func Clone(doc WeekPlan) WeekPlan {
	if doc == nil {
		return nil
	}
	out := make(WeekPlan, len(doc))
	for k, d := range doc {
		out[k] = cloneDay(d)
	}
	return out
}

func cloneDay(d DayPlan) DayPlan {
	return DayPlan{
		Breakfast: MealSlot{RecipeID: d.Breakfast.RecipeID, Items: cloneItems(d.Breakfast.Items)},
		Lunch:     MealSlot{RecipeID: d.Lunch.RecipeID, Items: cloneItems(d.Lunch.Items)},
		Dinner:    MealSlot{RecipeID: d.Dinner.RecipeID, Items: cloneItems(d.Dinner.Items)},
		Extra:     cloneItems(d.Extra),
	}
}

func cloneItems(items []PlannedItem) []PlannedItem {
	if items == nil {
		return nil
	}
	out := make([]PlannedItem, len(items))
	copy(out, items)
	return out
}

// CountUnchecked counts the items of the whole plan that are not yet checked off.
func CountUnchecked(doc WeekPlan) int {
	n := 0
	for _, d := range doc {
		for _, it := range d.Items() {
			if !it.Checked {
				n++
			}
		}
	}
	return n
}

// DecodeWeek decodes a stored plan document. Only a payload that is not a JSON object is
// an error; malformed days, slots or items inside it degrade to empty values.
func DecodeWeek(raw []byte) (WeekPlan, error) {
	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("failed to decode plan document: %w", err)
	}
	if days == nil {
		return nil, fmt.Errorf("failed to decode plan document: null")
	}

	plan := make(WeekPlan, len(days))
	for key, rawDay := range days {
		plan[key] = decodeDay(rawDay)
	}
	return plan, nil
}

func decodeDay(raw json.RawMessage) DayPlan {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return EmptyDay()
	}
	return DayPlan{
		Breakfast: decodeSlot(fields[string(MealBreakfast)]),
		Lunch:     decodeSlot(fields[string(MealLunch)]),
		Dinner:    decodeSlot(fields[string(MealDinner)]),
		Extra:     decodeItems(fields["extra"]),
	}
}

func decodeSlot(raw json.RawMessage) MealSlot {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return MealSlot{Items: []PlannedItem{}}
	}
	var recipeID string
	if err := json.Unmarshal(fields["recipeId"], &recipeID); err != nil {
		recipeID = ""
	}
	return MealSlot{RecipeID: recipeID, Items: decodeItems(fields["items"])}
}

func decodeItems(raw json.RawMessage) []PlannedItem {
	items := []PlannedItem{}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return items
	}
	for _, e := range elems {
		var it PlannedItem
		if err := json.Unmarshal(e, &it); err != nil {
			continue
		}
		if it.ID == "" || it.Name == "" {
			continue
		}
		items = append(items, it)
	}
	return items
}
