package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit  int // default DefaultListLimit, max MaxListLimit
	Offset int
}

// ReportSummary is one row of a report listing.
type ReportSummary struct {
	ID              string  `json:"id"`
	TestDate        string  `json:"test_date"`
	Lab             *string `json:"lab,omitempty"`
	AnchorState     string  `json:"anchor_state"`
	EffectiveState  string  `json:"effective_state"`
	SupplementsText string  `json:"supplements_text"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Reports    []ReportSummary `json:"reports"`
	Pagination Pagination      `json:"pagination"`
}

// List returns a page of reports, each with its resolved context summary.
// Contexts come from a single resolution pass over the full report set, so
// a page's summaries are consistent with each other.
func List(database *sql.DB, cfg *config.Config, input ListInput) (*ListOutput, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultListLimit
	}
	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}

	page, total, err := db.ListReports(database, input.Limit, input.Offset, false)
	if err != nil {
		return nil, err
	}

	contexts, _, err := resolveContexts(database)
	if err != nil {
		return nil, err
	}

	summaries := make([]ReportSummary, 0, len(page))
	for _, r := range page {
		s := ReportSummary{
			ID:          r.ID,
			TestDate:    r.TestDate,
			Lab:         r.Lab,
			AnchorState: string(report.NormalizeAnchorState(r.Annotations)),
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		}
		if ctx, ok := contexts[r.ID]; ok {
			s.EffectiveState = string(ctx.EffectiveState)
			s.SupplementsText = stack.DisplayText(ctx.Supplements)
		}
		summaries = append(summaries, s)
	}

	return &ListOutput{
		Reports: summaries,
		Pagination: Pagination{
			Limit:   input.Limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(page) < total,
			Total:   total,
		},
	}, nil
}
