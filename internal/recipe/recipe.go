package recipe

import (
	"strings"
	"time"
)

// Recipe is a read-only recipe offered for meal slots.
type Recipe struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IngredientLines []string  `json:"ingredientLines"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Ingredient is a catalogue entry offered when adding items by hand. Macro values are
// stored for the catalogue only and never copied into a plan.
type Ingredient struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Vendor        string  `json:"vendor,omitempty"`
	ProteinPer100 float64 `json:"proteinPer100"`
	CarbsPer100   float64 `json:"carbsPer100"`
	FatPer100     float64 `json:"fatPer100"`
}

// Label renders the ingredient as "Name (Vendor)".
func (i Ingredient) Label() string {
	if i.Vendor == "" {
		return i.Name
	}
	return i.Name + " (" + i.Vendor + ")"
}

// cleanText collapses whitespace runs into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
