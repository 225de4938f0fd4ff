package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/resolve"
	"github.com/labtrail/labtrail/internal/stack"
)

// ContextResolveInput contains parameters for the ContextResolve operation.
// With an ID it resolves that stored report; with a date it resolves a draft
// report at that position in the trail; with neither it resolves every
// report in a single pass. ID and date are mutually exclusive.
type ContextResolveInput struct {
	ID   *string // optional
	Date *string // optional, YYYY-MM-DD
}

// ContextEntry pairs a resolved context with its display text.
type ContextEntry struct {
	TestDate        string          `json:"test_date"`
	Context         resolve.Context `json:"context"`
	SupplementsText string          `json:"supplements_text"`
}

// ContextResolveOutput contains the result of the ContextResolve operation.
// Entries are in trail order (test date, then creation time, then ID).
type ContextResolveOutput struct {
	Contexts []ContextEntry `json:"contexts"`
}

// ContextResolve resolves supplement contexts against the current trail.
func ContextResolve(database *sql.DB, cfg *config.Config, input ContextResolveInput) (*ContextResolveOutput, error) {
	if input.ID != nil && input.Date != nil {
		return nil, errors.NewAmbiguousAddressing()
	}

	if input.Date != nil {
		if err := validateDay("date", *input.Date); err != nil {
			return nil, err
		}
		reports, timeline, err := loadResolutionInputs(database)
		if err != nil {
			return nil, err
		}
		// Draft report: resolved at its prospective trail position, nothing
		// is stored.
		draft := report.Report{TestDate: *input.Date}
		ctx := resolve.One(draft, reports, timeline)
		return &ContextResolveOutput{Contexts: []ContextEntry{{
			TestDate:        draft.TestDate,
			Context:         ctx,
			SupplementsText: stack.DisplayText(ctx.Supplements),
		}}}, nil
	}

	if input.ID != nil {
		r, err := db.GetReportByID(database, *input.ID, false)
		if err != nil {
			return nil, err
		}
		reports, timeline, err := loadResolutionInputs(database)
		if err != nil {
			return nil, err
		}
		ctx := resolve.One(*r, reports, timeline)
		return &ContextResolveOutput{Contexts: []ContextEntry{{
			TestDate:        r.TestDate,
			Context:         ctx,
			SupplementsText: stack.DisplayText(ctx.Supplements),
		}}}, nil
	}

	reports, timeline, err := loadResolutionInputs(database)
	if err != nil {
		return nil, err
	}
	contexts := resolve.All(reports, timeline)

	ordered := report.Order(reports)
	entries := make([]ContextEntry, 0, len(ordered))
	for _, r := range ordered {
		ctx, ok := contexts[r.ID]
		if !ok {
			continue
		}
		entries = append(entries, ContextEntry{
			TestDate:        r.TestDate,
			Context:         ctx,
			SupplementsText: stack.DisplayText(ctx.Supplements),
		})
	}

	return &ContextResolveOutput{Contexts: entries}, nil
}

// ContextCurrentInput contains parameters for the ContextCurrent operation.
type ContextCurrentInput struct{}

// ContextCurrentOutput is the context a new report logged right now would
// inherit.
type ContextCurrentOutput struct {
	Context         resolve.Context `json:"context"`
	SupplementsText string          `json:"supplements_text"`
	InheritedFrom   *string         `json:"inherited_from,omitempty"`
}

// ContextCurrent resolves the inheritable context as of the end of the trail.
func ContextCurrent(database *sql.DB, cfg *config.Config, input ContextCurrentInput) (*ContextCurrentOutput, error) {
	reports, timeline, err := loadResolutionInputs(database)
	if err != nil {
		return nil, err
	}

	ctx := resolve.CurrentInherited(reports, timeline)
	out := &ContextCurrentOutput{
		Context:         ctx,
		SupplementsText: stack.DisplayText(ctx.Supplements),
	}
	if ctx.ReportID != "" {
		id := ctx.ReportID
		out.InheritedFrom = &id
	}
	return out, nil
}
