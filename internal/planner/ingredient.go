package planner

import (
	"regexp"
	"strconv"
)

// "100 g Jogurt bílý (Lidl)" -> amount 100, unit g, name "Jogurt bílý", vendor "Lidl".
var ingredientLinePattern = regexp.MustCompile(`(?i)^(\d+)\s*(g|ml|ks)\s+(.+?)(?:\s*\(([^)]+)\))?$`)

// ParsedLine is the structured form of a free-text ingredient line.
type ParsedLine struct {
	Name   string
	Vendor string
	Amount float64
	Unit   Unit
}

// ParseIngredientLine parses "<amount> <unit> <name> [(vendor)]". A line that does not
// match becomes one piece (ks) named after the whole line.
func ParseIngredientLine(line string) ParsedLine {
	m := ingredientLinePattern.FindStringSubmatch(line)
	if m == nil {
		return ParsedLine{Name: line, Amount: 1, Unit: UnitCount}
	}

	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		// digit runs too long for a float
		return ParsedLine{Name: line, Amount: 1, Unit: UnitCount}
	}
	unit, _ := ParseUnit(m[2])

	return ParsedLine{
		Name:   m[3],
		Vendor: m[4],
		Amount: amount,
		Unit:   unit,
	}
}
