package resolve

import (
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

// One resolves a single report against the full report set and timeline.
// If rep is not present in reports by ID it is appended before resolving, so
// a draft report can be resolved at its prospective position without the
// caller's slice being touched. If resolution still yields nothing the safe
// default (none, empty, no anchor) is returned.
func One(rep report.Report, reports []report.Report, timeline []stack.Period) Context {
	found := false
	for _, r := range reports {
		if r.ID == rep.ID {
			found = true
			break
		}
	}
	if !found {
		combined := make([]report.Report, 0, len(reports)+1)
		combined = append(combined, reports...)
		combined = append(combined, rep)
		reports = combined
	}

	if ctx, ok := All(reports, timeline)[rep.ID]; ok {
		return ctx
	}
	return emptyContext(rep.ID)
}

// CurrentInherited returns the context a brand-new report inserted after all
// existing reports would inherit right now: the resolved context of the
// chronologically last report, or the open-stack-derived initial state when
// no reports exist yet.
func CurrentInherited(reports []report.Report, timeline []stack.Period) Context {
	if len(reports) == 0 {
		cur := initialCarried(timeline)
		return cur.snapshot("", report.StateInherit)
	}

	ordered := report.Order(reports)
	last := ordered[len(ordered)-1]
	contexts := All(reports, timeline)
	if ctx, ok := contexts[last.ID]; ok {
		return ctx
	}
	return emptyContext(last.ID)
}

// EffectiveSupplements returns only the supplement list of One.
func EffectiveSupplements(rep report.Report, reports []report.Report, timeline []stack.Period) []stack.Period {
	return One(rep, reports, timeline).Supplements
}

// emptyContext is the fallback context: none, empty, no anchor.
func emptyContext(reportID string) Context {
	return Context{
		ReportID:       reportID,
		AnchorState:    report.StateInherit,
		EffectiveState: report.StateNone,
		Supplements:    []stack.Period{},
	}
}
