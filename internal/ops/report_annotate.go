package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/resolve"
	"github.com/labtrail/labtrail/internal/stack"
)

// AnnotateInput contains parameters for the Annotate operation. Nil pointer
// fields are left unchanged; the Clear flags remove the annotation, which
// lets the report fall back to inherit.
type AnnotateInput struct {
	ID                 string  // required
	AnchorState        *string // inherit, anchor, none, unknown
	StackOverride      *[]stack.Period
	ClearAnchorState   bool
	ClearStackOverride bool
}

// AnnotateOutput contains the annotated report's re-resolved context.
type AnnotateOutput struct {
	ID              string          `json:"id"`
	Context         resolve.Context `json:"context"`
	SupplementsText string          `json:"supplements_text"`
}

// Annotate records what the supplement stack was at a report's point in the
// trail. Annotating a past report retroactively changes the resolved context
// of every later inherit report.
func Annotate(database *sql.DB, cfg *config.Config, input AnnotateInput) (*AnnotateOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.AnchorState != nil && input.ClearAnchorState {
		return nil, errors.NewInvalidRequest("anchor_state and clear_anchor_state are mutually exclusive")
	}
	if input.StackOverride != nil && input.ClearStackOverride {
		return nil, errors.NewInvalidRequest("stack_override and clear_stack_override are mutually exclusive")
	}

	r, err := db.GetReportByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}

	if input.ClearAnchorState {
		r.Annotations.AnchorState = nil
	} else if input.AnchorState != nil {
		state, err := validateAnchorState(input.AnchorState)
		if err != nil {
			return nil, err
		}
		r.Annotations.AnchorState = state
	}
	if input.ClearStackOverride {
		r.Annotations.StackOverride = nil
	} else if input.StackOverride != nil {
		if err := validateOverride(input.StackOverride); err != nil {
			return nil, err
		}
		r.Annotations.StackOverride = input.StackOverride
	}

	if err := db.UpdateReportByID(database, r); err != nil {
		return nil, err
	}

	reports, timeline, err := loadResolutionInputs(database)
	if err != nil {
		return nil, err
	}
	ctx := resolve.One(*r, reports, timeline)

	return &AnnotateOutput{
		ID:              r.ID,
		Context:         ctx,
		SupplementsText: stack.DisplayText(ctx.Supplements),
	}, nil
}
