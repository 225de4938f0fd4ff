// Package resolve determines which supplements were in effect for each lab
// report. It is a pure in-memory layer: a single forward sweep over the
// reports in chronological order, carrying an effective state that anchor/
// none/unknown reports reset and inherit reports receive unchanged. It never
// mutates its inputs, so callers may share report and timeline slices across
// concurrent resolution calls.
package resolve

import (
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

// Context is the resolved supplement context for one report.
type Context struct {
	// ReportID identifies the report this context belongs to
	ReportID string `json:"report_id"`

	// AnchorState is the report's own normalized annotation state
	AnchorState report.AnchorState `json:"anchor_state"`

	// EffectiveState is the state actually in force after inheritance:
	// anchor, none, or unknown (never inherit)
	EffectiveState report.AnchorState `json:"effective_state"`

	// Supplements is the effective supplement list, in canonical order
	Supplements []stack.Period `json:"supplements"`

	// AnchorReportID is the report that most recently established the
	// effective state, or nil when the state comes from the timeline's
	// open stack rather than any report
	AnchorReportID *string `json:"anchor_report_id,omitempty"`

	// AnchorDate is the test date of that report (nullable)
	AnchorDate *string `json:"anchor_date,omitempty"`
}

// carried is the mutable state of the forward sweep.
type carried struct {
	state          report.AnchorState // anchor, none, or unknown
	supplements    []stack.Period
	anchorReportID *string
	anchorDate     *string
}

// initialCarried derives the pre-sweep state from the timeline's currently
// open periods: anchor with that list when non-empty, otherwise none.
//
// Deliberately the *current* open stack, not what was active on the first
// report's test date. Absent any per-report signal the stack is assumed
// static, so early unannotated reports inherit today's stack. Kept as-is
// pending product clarification (see DESIGN.md).
func initialCarried(timeline []stack.Period) carried {
	open := stack.OpenPeriods(timeline)
	if len(open) > 0 {
		return carried{state: report.StateAnchor, supplements: open}
	}
	return carried{state: report.StateNone, supplements: []stack.Period{}}
}

// snapshot freezes the carried state into a Context for one report.
// The supplement list is copied so later transitions cannot alias into
// previously emitted contexts.
func (c carried) snapshot(reportID string, own report.AnchorState) Context {
	supplements := make([]stack.Period, len(c.supplements))
	copy(supplements, c.supplements)
	return Context{
		ReportID:       reportID,
		AnchorState:    own,
		EffectiveState: c.state,
		Supplements:    supplements,
		AnchorReportID: c.anchorReportID,
		AnchorDate:     c.anchorDate,
	}
}

// All resolves the supplement context of every report against the timeline.
// The result maps report ID to its context. Resolution is a pure function of
// (reports, timeline): identical inputs yield identical outputs regardless of
// input collection order.
func All(reports []report.Report, timeline []stack.Period) map[string]Context {
	ordered := report.Order(reports)
	cur := initialCarried(timeline)
	out := make(map[string]Context, len(ordered))

	for _, r := range ordered {
		state := report.NormalizeAnchorState(r.Annotations)

		switch state {
		case report.StateAnchor:
			if r.Annotations.StackOverride != nil && len(*r.Annotations.StackOverride) > 0 {
				cur.state = report.StateAnchor
				cur.supplements = stack.Sorted(*r.Annotations.StackOverride)
			} else {
				// Explicitly authored anchor with a present-but-empty
				// override collapses to none.
				cur.state = report.StateNone
				cur.supplements = []stack.Period{}
			}
			cur.anchorReportID, cur.anchorDate = refTo(r)
		case report.StateNone:
			cur.state = report.StateNone
			cur.supplements = []stack.Period{}
			cur.anchorReportID, cur.anchorDate = refTo(r)
		case report.StateUnknown:
			cur.state = report.StateUnknown
			cur.supplements = []stack.Period{}
			cur.anchorReportID, cur.anchorDate = refTo(r)
		case report.StateInherit:
			// carried state flows through; the anchor reference stays with
			// the report that established it
		}

		out[r.ID] = cur.snapshot(r.ID, state)
	}

	return out
}

// refTo returns pointers to copies of the report's ID and test date.
func refTo(r report.Report) (*string, *string) {
	id := r.ID
	date := r.TestDate
	return &id, &date
}
