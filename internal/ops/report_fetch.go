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

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string // required
	IncludeDeleted bool
}

// FetchOutput contains a report together with its resolved supplement context.
type FetchOutput struct {
	Report          report.Report   `json:"report"`
	Context         resolve.Context `json:"context"`
	SupplementsText string          `json:"supplements_text"`
}

// Fetch retrieves a report by ID and resolves its supplement context.
func Fetch(database *sql.DB, cfg *config.Config, input FetchInput) (*FetchOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	r, err := db.GetReportByID(database, input.ID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	reports, timeline, err := loadResolutionInputs(database)
	if err != nil {
		return nil, err
	}
	ctx := resolve.One(*r, reports, timeline)

	return &FetchOutput{
		Report:          *r,
		Context:         ctx,
		SupplementsText: stack.DisplayText(ctx.Supplements),
	}, nil
}
