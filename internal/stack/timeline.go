package stack

import (
	"sort"
	"strings"
)

// ActiveOn returns the periods of timeline that were active on the given
// date: start ≤ date ≤ end, with an absent end treated as open-ended.
// Periods whose dates do not parse are excluded, never an error.
// The result is in canonical order (see SortPeriods) and is independent of
// the input order.
func ActiveOn(timeline []Period, date string) []Period {
	day, ok := ParseDay(date)
	if !ok {
		return []Period{}
	}

	active := make([]Period, 0, len(timeline))
	for _, p := range timeline {
		start, ok := ParseDay(p.StartDate)
		if !ok {
			continue
		}
		if day.Before(start) {
			continue
		}
		if p.EndDate != nil {
			end, ok := ParseDay(*p.EndDate)
			if !ok {
				continue
			}
			if day.After(end) {
				continue
			}
		}
		active = append(active, p)
	}

	SortPeriods(active)
	return active
}

// OpenPeriods returns the timeline's currently open periods (no end date)
// in canonical order. This is the "stack as of now".
func OpenPeriods(timeline []Period) []Period {
	open := make([]Period, 0, len(timeline))
	for _, p := range timeline {
		if p.EndDate == nil {
			open = append(open, p)
		}
	}
	SortPeriods(open)
	return open
}

// SortPeriods sorts in place by start date, then end date with open periods
// last, then case-insensitive name. Every list of periods labtrail surfaces
// goes through this ordering so list equality is stable and testable.
func SortPeriods(periods []Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].StartDate != periods[j].StartDate {
			return periods[i].StartDate < periods[j].StartDate
		}
		ei, ej := periods[i].EndDate, periods[j].EndDate
		if (ei == nil) != (ej == nil) {
			return ej == nil // closed sorts before open
		}
		if ei != nil && *ei != *ej {
			return *ei < *ej
		}
		return strings.ToLower(periods[i].Name) < strings.ToLower(periods[j].Name)
	})
}

// Sorted returns a canonically ordered copy, leaving the input untouched.
func Sorted(periods []Period) []Period {
	out := make([]Period, len(periods))
	copy(out, periods)
	SortPeriods(out)
	return out
}
