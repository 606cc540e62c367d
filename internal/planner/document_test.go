package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDays = []string{
	"2025-09-01", "2025-09-02", "2025-09-03", "2025-09-04",
	"2025-09-05", "2025-09-06", "2025-09-07",
}

func item(id, name string, amount float64, unit Unit, checked bool) PlannedItem {
	return PlannedItem{ID: id, Name: name, Amount: amount, Unit: unit, Checked: checked, Source: SourceExtra}
}

func TestEmptyWeek(t *testing.T) {
	plan := EmptyWeek(testDays)
	require.Len(t, plan, 7)
	for _, d := range testDays {
		day := plan[d]
		assert.NotNil(t, day.Breakfast.Items)
		assert.NotNil(t, day.Lunch.Items)
		assert.NotNil(t, day.Dinner.Items)
		assert.NotNil(t, day.Extra)
		assert.Empty(t, day.Items())
	}
}

func TestNormalize(t *testing.T) {
	t.Run("Backfills missing days and slots", func(t *testing.T) {
		doc := WeekPlan{
			"2025-09-02": {Lunch: MealSlot{RecipeID: "r1", Items: []PlannedItem{item("a", "Rice", 100, UnitGram, false)}}},
		}

		got := Normalize(doc, testDays)

		require.Len(t, got, 7)
		assert.Equal(t, "r1", got["2025-09-02"].Lunch.RecipeID)
		assert.Len(t, got["2025-09-02"].Lunch.Items, 1)
		assert.NotNil(t, got["2025-09-02"].Breakfast.Items)
		assert.NotNil(t, got["2025-09-02"].Extra)
		assert.Equal(t, EmptyDay(), got["2025-09-07"])
	})

	t.Run("Repairs unknown units and sources", func(t *testing.T) {
		doc := WeekPlan{"2025-09-01": {Extra: []PlannedItem{{ID: "x", Name: "Salt", Amount: 1, Unit: "cup", Source: "?"}}}}

		got := Normalize(doc, testDays)

		it := got["2025-09-01"].Extra[0]
		assert.Equal(t, UnitCount, it.Unit)
		assert.Equal(t, SourceExtra, it.Source)
	})

	t.Run("Keeps keys outside the week", func(t *testing.T) {
		doc := WeekPlan{"2025-08-31": {Extra: []PlannedItem{item("x", "Milk", 1, UnitCount, false)}}}

		got := Normalize(doc, testDays)

		assert.Len(t, got, 8)
		assert.Len(t, got["2025-08-31"].Extra, 1)
	})

	t.Run("Nil document", func(t *testing.T) {
		assert.Equal(t, EmptyWeek(testDays), Normalize(nil, testDays))
	})

	t.Run("Idempotent", func(t *testing.T) {
		docs := []WeekPlan{
			nil,
			{},
			{"2025-09-03": {}},
			{"2025-09-03": {Dinner: MealSlot{Items: []PlannedItem{{ID: "a", Name: "Egg", Amount: 2, Unit: "KS"}}}}},
			{"junk": {Extra: []PlannedItem{item("b", "Tea", 1, UnitCount, true)}}},
		}
		for _, doc := range docs {
			once := Normalize(doc, testDays)
			assert.Equal(t, once, Normalize(once, testDays))
		}
	})

	t.Run("Does not alias the input", func(t *testing.T) {
		doc := WeekPlan{"2025-09-01": {Extra: []PlannedItem{item("a", "Tea", 1, UnitCount, false)}}}
		got := Normalize(doc, testDays)
		got["2025-09-01"].Extra[0].Checked = true
		assert.False(t, doc["2025-09-01"].Extra[0].Checked)
	})
}

func TestCountUnchecked(t *testing.T) {
	doc := WeekPlan{
		"2025-09-01": {
			Breakfast: MealSlot{Items: []PlannedItem{item("a", "Oats", 50, UnitGram, false), item("b", "Milk", 200, UnitMilliliter, true)}},
			Extra:     []PlannedItem{item("c", "Apple", 2, UnitCount, false)},
		},
		"2025-09-04": {
			Dinner: MealSlot{Items: []PlannedItem{item("d", "Fish", 300, UnitGram, false)}},
		},
	}
	assert.Equal(t, 3, CountUnchecked(doc))
	assert.Zero(t, CountUnchecked(nil))
}

func TestDecodeWeek(t *testing.T) {
	t.Run("Well formed", func(t *testing.T) {
		raw := `{"2025-09-01":{"breakfast":{"recipeId":"r1","items":[{"id":"a","name":"Oats","amount":50,"unit":"g","checked":false,"source":"recipe"}]},"lunch":{"items":[]},"dinner":{"items":[]},"extra":[]}}`

		plan, err := DecodeWeek([]byte(raw))
		require.NoError(t, err)

		day := plan["2025-09-01"]
		assert.Equal(t, "r1", day.Breakfast.RecipeID)
		require.Len(t, day.Breakfast.Items, 1)
		assert.Equal(t, PlannedItem{ID: "a", Name: "Oats", Amount: 50, Unit: UnitGram, Source: SourceRecipe}, day.Breakfast.Items[0])
	})

	t.Run("Malformed parts degrade to empty", func(t *testing.T) {
		raw := `{
			"2025-09-01": 42,
			"2025-09-02": {"breakfast": "oops", "lunch": {"items": {"not": "a list"}}, "extra": [1, {"id":"x","name":"Salt","amount":1,"unit":"ks"}, {"name":"no id"}]},
			"2025-09-03": {"dinner": {"recipeId": 7, "items": []}}
		}`

		plan, err := DecodeWeek([]byte(raw))
		require.NoError(t, err)

		assert.Equal(t, EmptyDay(), plan["2025-09-01"])
		assert.Empty(t, plan["2025-09-02"].Breakfast.Items)
		assert.Empty(t, plan["2025-09-02"].Lunch.Items)
		require.Len(t, plan["2025-09-02"].Extra, 1)
		assert.Equal(t, "Salt", plan["2025-09-02"].Extra[0].Name)
		assert.Empty(t, plan["2025-09-03"].Dinner.RecipeID)
	})

	t.Run("Not an object", func(t *testing.T) {
		for _, raw := range []string{`[]`, `"text"`, `null`, `{`} {
			_, err := DecodeWeek([]byte(raw))
			assert.Error(t, err, raw)
		}
	})
}

func TestClone(t *testing.T) {
	doc := WeekPlan{"2025-09-01": {Lunch: MealSlot{Items: []PlannedItem{item("a", "Rice", 1, UnitCount, false)}}}}
	c := Clone(doc)
	c["2025-09-01"].Lunch.Items[0].Name = "Pasta"
	assert.Equal(t, "Rice", doc["2025-09-01"].Lunch.Items[0].Name)
	assert.Nil(t, Clone(nil))
}
