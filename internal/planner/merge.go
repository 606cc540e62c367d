package planner

import (
	"sort"
	"time"
)

// Source names where a merge candidate was read from.
type Source string

const (
	SourceNone            Source = "none"
	SourceAnonymousDevice Source = "anonymous-device"
	SourceUserDevice      Source = "user-device"
	SourceRemote          Source = "remote"
)

// Candidate is one stored version of a week plan.
type Candidate struct {
	Source  Source
	SavedAt time.Time
	Plan    WeekPlan
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Plan   WeekPlan
	Source Source
	// Migrate is set when a guest plan wins for a signed-in user: it must be adopted into
	// the user's device and remote copies.
	Migrate bool
	// DiscardAnonymous is set when a signed-in resolve read a guest copy; once the result
	// is persisted for the user, the guest copy must be deleted.
	DiscardAnonymous bool
}

// Resolve picks the authoritative plan among the present candidates: latest SavedAt first,
// and on an equal SavedAt the one with more unchecked items. With no candidates the result
// is an empty week. nil candidates are ignored.
func Resolve(signedIn bool, days []string, candidates ...*Candidate) Resolution {
	present := make([]*Candidate, 0, len(candidates))
	sawAnonymous := false
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if c.Source == SourceAnonymousDevice {
			sawAnonymous = true
		}
		present = append(present, c)
	}

	if len(present) == 0 {
		return Resolution{Plan: EmptyWeek(days), Source: SourceNone}
	}

	unchecked := make(map[*Candidate]int, len(present))
	for _, c := range present {
		unchecked[c] = CountUnchecked(c.Plan)
	}

	sort.SliceStable(present, func(i, j int) bool {
		a, b := present[i], present[j]
		if !a.SavedAt.Equal(b.SavedAt) {
			return a.SavedAt.After(b.SavedAt)
		}
		return unchecked[a] > unchecked[b]
	})

	winner := present[0]
	return Resolution{
		Plan:             Normalize(winner.Plan, days),
		Source:           winner.Source,
		Migrate:          signedIn && winner.Source == SourceAnonymousDevice,
		DiscardAnonymous: signedIn && sawAnonymous,
	}
}
