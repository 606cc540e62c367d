package shopping

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"shopping-planner/internal/planner"
)

// DefaultLanguage orders summary names when no other locale is configured.
var DefaultLanguage = language.Czech

type groupKey struct {
	name   string
	vendor string
	unit   planner.Unit
}

// Summarizer derives the consolidated shopping list of a plan.
type Summarizer struct {
	tag language.Tag
}

// NewSummarizer returns a Summarizer sorting names by the collation rules of tag.
func NewSummarizer(tag language.Tag) *Summarizer {
	return &Summarizer{tag: tag}
}

// Summarize groups every unchecked item of doc by (name, vendor, unit), sums the amounts
// and sorts the groups by name.
func (s *Summarizer) Summarize(doc planner.WeekPlan) []SummaryLine {
	totals := make(map[groupKey]float64)
	var order []groupKey
	for _, day := range doc {
		for _, it := range day.Items() {
			if it.Checked {
				continue
			}
			k := groupKey{name: it.Name, vendor: it.Vendor, unit: it.Unit}
			if _, seen := totals[k]; !seen {
				order = append(order, k)
			}
			totals[k] += it.Amount
		}
	}

	lines := make([]SummaryLine, 0, len(order))
	for _, k := range order {
		lines = append(lines, SummaryLine{Name: k.name, Vendor: k.vendor, Unit: k.unit, Amount: totals[k]})
	}

	// A Collator keeps internal buffers, one per call.
	c := collate.New(s.tag)
	sort.SliceStable(lines, func(i, j int) bool {
		if cmp := c.CompareString(lines[i].Name, lines[j].Name); cmp != 0 {
			return cmp < 0
		}
		if lines[i].Vendor != lines[j].Vendor {
			return lines[i].Vendor < lines[j].Vendor
		}
		return lines[i].Unit < lines[j].Unit
	})
	return lines
}

// Summarize uses DefaultLanguage.
func Summarize(doc planner.WeekPlan) []SummaryLine {
	return NewSummarizer(DefaultLanguage).Summarize(doc)
}
