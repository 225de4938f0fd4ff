package stack

import (
	"strings"
	"time"
)

// FrequencyUnknown is the sentinel frequency value meaning "no frequency to
// display". Legacy entries use it when the intake schedule was never recorded.
const FrequencyUnknown = "unknown"

// DayFormat is the calendar-date layout used everywhere in labtrail.
const DayFormat = "2006-01-02"

// Period represents a continuous interval during which one supplement was
// taken at a fixed dose and frequency. An absent EndDate means the period is
// still open (the supplement is currently being taken).
type Period struct {
	// ID is a ULID that uniquely identifies this period
	ID string `json:"id"`

	// Name is the supplement name (free text, matched case-insensitively)
	Name string `json:"name"`

	// Dose is a free-text dose, e.g. "4000 IU"
	Dose string `json:"dose,omitempty"`

	// Frequency is a free-text intake schedule, e.g. "daily".
	// The sentinel value "unknown" is suppressed in display output.
	Frequency string `json:"frequency,omitempty"`

	// StartDate is the inclusive first day, in YYYY-MM-DD form
	StartDate string `json:"start_date"`

	// EndDate is the inclusive last day, or nil while the period is open
	EndDate *string `json:"end_date,omitempty"`
}

// Open reports whether the period has no end date.
func (p Period) Open() bool {
	return p.EndDate == nil
}

// ParseDay parses an ISO calendar date at UTC midnight.
// Anchoring every date to the same instant-of-day keeps chronological
// comparison in agreement with lexicographic comparison of the raw strings,
// so parsed and unparsed code paths cannot disagree about ordering.
// Returns ok=false for unparsable input; callers treat such dates as
// unmatchable rather than failing.
func ParseDay(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DayFormat, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today returns the current date in YYYY-MM-DD form (UTC).
func Today() string {
	return time.Now().UTC().Format(DayFormat)
}
