package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/report"
)

// BackfillInput contains parameters for the Backfill operation.
type BackfillInput struct {
	Limit int // default DefaultListLimit, max MaxListLimit
}

// BackfillItem is one report whose supplement context needs annotation.
type BackfillItem struct {
	ID          string  `json:"id"`
	TestDate    string  `json:"test_date"`
	Lab         *string `json:"lab,omitempty"`
	AnchorState string  `json:"anchor_state"`
}

// BackfillOutput contains the result of the Backfill operation.
type BackfillOutput struct {
	Items []BackfillItem `json:"items"`
	Total int            `json:"total"`
}

// Backfill lists reports whose effective context is unknown, oldest first.
// These are the reports worth annotating: fixing the oldest one clears the
// unknown state for every inherit report after it up to the next anchor.
func Backfill(database *sql.DB, cfg *config.Config, input BackfillInput) (*BackfillOutput, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultListLimit
	}
	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}

	contexts, reports, err := resolveContexts(database)
	if err != nil {
		return nil, err
	}

	var all []BackfillItem
	for _, r := range report.Order(reports) {
		ctx, ok := contexts[r.ID]
		if !ok || ctx.EffectiveState != report.StateUnknown {
			continue
		}
		all = append(all, BackfillItem{
			ID:          r.ID,
			TestDate:    r.TestDate,
			Lab:         r.Lab,
			AnchorState: string(ctx.AnchorState),
		})
	}

	items := all
	if len(items) > input.Limit {
		items = items[:input.Limit]
	}
	if items == nil {
		items = []BackfillItem{}
	}

	return &BackfillOutput{Items: items, Total: len(all)}, nil
}
