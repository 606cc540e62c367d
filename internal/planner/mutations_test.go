package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignRecipe(t *testing.T) {
	doc := EmptyWeek(testDays)

	got, err := AssignRecipe(doc, "2025-09-01", MealLunch, "r1", []string{"200 g Rýže", "Sůl"})
	require.NoError(t, err)

	slot := got["2025-09-01"].Lunch
	assert.Equal(t, "r1", slot.RecipeID)
	require.Len(t, slot.Items, 2)
	assert.Equal(t, "Rýže", slot.Items[0].Name)
	assert.Equal(t, SourceRecipe, slot.Items[0].Source)
	assert.Equal(t, "Sůl", slot.Items[1].Name)
	assert.Equal(t, UnitCount, slot.Items[1].Unit)
	assert.NotEqual(t, slot.Items[0].ID, slot.Items[1].ID)
	assert.Empty(t, doc["2025-09-01"].Lunch.Items, "input must not be modified")

	t.Run("Reassigning replaces the whole list", func(t *testing.T) {
		again, err := AssignRecipe(got, "2025-09-01", MealLunch, "r2", []string{"1 ks Citron"})
		require.NoError(t, err)
		items := again["2025-09-01"].Lunch.Items
		require.Len(t, items, 1)
		assert.Equal(t, "Citron", items[0].Name)
		assert.NotEqual(t, slot.Items[0].ID, items[0].ID)
	})

	t.Run("Missing day is created", func(t *testing.T) {
		out, err := AssignRecipe(WeekPlan{}, "2025-09-03", MealDinner, "r1", []string{"1 ks Vejce"})
		require.NoError(t, err)
		assert.Len(t, out["2025-09-03"].Dinner.Items, 1)
		assert.NotNil(t, out["2025-09-03"].Extra)
	})

	t.Run("Unknown meal", func(t *testing.T) {
		_, err := AssignRecipe(doc, "2025-09-01", Meal("brunch"), "r1", nil)
		assert.ErrorIs(t, err, ErrUnknownMeal)
	})
}

func TestClearMeal(t *testing.T) {
	doc, err := AssignRecipe(EmptyWeek(testDays), "2025-09-02", MealBreakfast, "r1", []string{"50 g Ovesné vločky"})
	require.NoError(t, err)

	out, err := ClearMeal(doc, "2025-09-02", MealBreakfast)
	require.NoError(t, err)
	assert.Empty(t, out["2025-09-02"].Breakfast.RecipeID)
	assert.Empty(t, out["2025-09-02"].Breakfast.Items)
}

func TestToggleItem(t *testing.T) {
	doc, err := AssignRecipe(EmptyWeek(testDays), "2025-09-01", MealDinner, "r1", []string{"300 g Losos"})
	require.NoError(t, err)
	id := doc["2025-09-01"].Dinner.Items[0].ID

	toggled, err := ToggleItem(doc, "2025-09-01", id)
	require.NoError(t, err)
	assert.True(t, toggled["2025-09-01"].Dinner.Items[0].Checked)
	assert.False(t, doc["2025-09-01"].Dinner.Items[0].Checked)

	back, err := ToggleItem(toggled, "2025-09-01", id)
	require.NoError(t, err)
	assert.False(t, back["2025-09-01"].Dinner.Items[0].Checked)

	_, err = ToggleItem(doc, "2025-09-02", id)
	assert.ErrorIs(t, err, ErrUnknownItem)
	_, err = ToggleItem(doc, "2025-09-10", id)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestAddAndRemoveExtra(t *testing.T) {
	doc := EmptyWeek(testDays)

	out, added, err := AddExtra(doc, "2025-09-05", "Banány", "Lidl", 6, UnitCount)
	require.NoError(t, err)
	require.Len(t, out["2025-09-05"].Extra, 1)
	assert.Equal(t, added, out["2025-09-05"].Extra[0])
	assert.Equal(t, SourceExtra, added.Source)
	assert.Equal(t, "Lidl", added.Vendor)

	t.Run("Invalid input", func(t *testing.T) {
		_, _, err := AddExtra(doc, "2025-09-05", "Banány", "", 0, UnitCount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, _, err = AddExtra(doc, "2025-09-05", "", "", 1, UnitCount)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("Remove", func(t *testing.T) {
		removed, err := RemoveExtra(out, "2025-09-05", added.ID)
		require.NoError(t, err)
		assert.Empty(t, removed["2025-09-05"].Extra)
		assert.Len(t, out["2025-09-05"].Extra, 1)
	})

	t.Run("Recipe items cannot be removed", func(t *testing.T) {
		withRecipe, err := AssignRecipe(out, "2025-09-05", MealLunch, "r1", []string{"1 ks Chléb"})
		require.NoError(t, err)
		_, err = RemoveExtra(withRecipe, "2025-09-05", withRecipe["2025-09-05"].Lunch.Items[0].ID)
		assert.ErrorIs(t, err, ErrRecipeItem)
	})

	t.Run("Unknown item", func(t *testing.T) {
		_, err := RemoveExtra(out, "2025-09-05", "nope")
		assert.ErrorIs(t, err, ErrUnknownItem)
	})
}

func TestFindItem(t *testing.T) {
	doc, err := AssignRecipe(EmptyWeek(testDays), "2025-09-04", MealLunch, "r1", []string{"1 ks Avokádo"})
	require.NoError(t, err)
	doc, extra, err := AddExtra(doc, "2025-09-06", "Káva", "", 250, UnitGram)
	require.NoError(t, err)

	ref, ok := FindItem(doc, doc["2025-09-04"].Lunch.Items[0].ID)
	require.True(t, ok)
	assert.Equal(t, "2025-09-04", ref.Day)
	assert.Equal(t, string(MealLunch), ref.Section)

	ref, ok = FindItem(doc, extra.ID)
	require.True(t, ok)
	assert.Equal(t, ExtraSection, ref.Section)

	_, ok = FindItem(doc, "missing")
	assert.False(t, ok)
}
