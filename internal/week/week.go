package week

import (
	"fmt"
	"time"
)

// isoLayout is the canonical date layout of week and day keys.
const isoLayout = "2006-01-02"

// Day is the length of one calendar day in UTC.
const Day = 24 * time.Hour

// Key identifies a calendar week by the ISO date of its Monday (YYYY-MM-DD, UTC).
type Key string

// MondayOf returns UTC midnight of the Monday of t's week.
// Only UTC fields are read, so the result does not depend on t's location.
func MondayOf(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -(weekday - 1))
}

// At returns the Monday of the week that lies index weeks after baseMonday.
func At(baseMonday time.Time, index int) time.Time {
	return MondayOf(MondayOf(baseMonday).AddDate(0, 0, index*7))
}

// Index returns how many whole weeks separate t's week from baseMonday's week.
func Index(baseMonday, t time.Time) int {
	diff := MondayOf(t).Sub(MondayOf(baseMonday))
	return int(diff.Round(Day) / (7 * Day))
}

// DaysOf returns the seven UTC days starting at weekStart.
func DaysOf(weekStart time.Time) []time.Time {
	start := MondayOf(weekStart)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// ISO formats t as YYYY-MM-DD using UTC fields.
func ISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// Parse reads a YYYY-MM-DD date as UTC midnight.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(isoLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// KeyOf returns the week key of the week containing t.
func KeyOf(t time.Time) Key {
	return Key(ISO(MondayOf(t)))
}

// ParseKey validates s as the ISO date of a Monday.
func ParseKey(s string) (Key, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	if !MondayOf(t).Equal(t) {
		return "", fmt.Errorf("date %s is not a Monday", s)
	}
	return Key(s), nil
}

// Start returns the Monday of the week. An invalid key yields the zero time.
func (k Key) Start() time.Time {
	t, err := Parse(string(k))
	if err != nil {
		return time.Time{}
	}
	return MondayOf(t)
}

// Days returns the ISO keys of the seven days of the week.
func (k Key) Days() []string {
	days := DaysOf(k.Start())
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = ISO(d)
	}
	return out
}

// Next returns the key of the following week.
func (k Key) Next() Key {
	return KeyOf(k.Start().AddDate(0, 0, 7))
}

// Prev returns the key of the preceding week.
func (k Key) Prev() Key {
	return KeyOf(k.Start().AddDate(0, 0, -7))
}

func (k Key) String() string {
	return string(k)
}
