package shopping

import (
	"fmt"
	"strconv"

	"shopping-planner/internal/planner"
)

// SummaryLine is one consolidated row of the shopping list.
type SummaryLine struct {
	Name   string       `json:"name"`
	Vendor string       `json:"vendor,omitempty"`
	Unit   planner.Unit `json:"unit"`
	Amount float64      `json:"amount"`
}

// String renders the line as "<amount> <unit> <name> (<vendor>)".
func (l SummaryLine) String() string {
	s := fmt.Sprintf("%s %s %s", strconv.FormatFloat(l.Amount, 'f', -1, 64), l.Unit, l.Name)
	if l.Vendor != "" {
		s += " (" + l.Vendor + ")"
	}
	return s
}
