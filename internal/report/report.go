package report

import (
	"github.com/labtrail/labtrail/internal/stack"
)

// Report represents one lab-test event.
type Report struct {
	// ID is a ULID that uniquely identifies this report
	ID string `json:"id"`

	// TestDate is the day the sample was drawn, in YYYY-MM-DD form.
	// Semantically distinct from CreatedAt, which records when the report
	// entered labtrail.
	TestDate string `json:"test_date"`

	// Lab is the issuing laboratory (nullable)
	Lab *string `json:"lab,omitempty"`

	// Notes is free-form markdown attached to the report (nullable)
	Notes *string `json:"notes,omitempty"`

	// Annotations carry the supplement-context signals for this report
	Annotations Annotations `json:"annotations"`

	// CreatedAt is the Unix timestamp when the report was created.
	// Used only as a tie-break when ordering same-day reports.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the report was last updated
	UpdatedAt int64 `json:"updated_at"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// Annotations are the per-report supplement-context signals. The resolution
// core reads them and never writes them.
//
// StackOverride distinguishes three shapes: nil means "not set", an empty
// slice means "explicitly no supplements", and a non-empty slice is an
// explicit replacement stack. Persistence must preserve that distinction.
type Annotations struct {
	// AnchorState is the raw annotation value. Legacy reports never set it;
	// see NormalizeAnchorState for how it is derived from StackOverride.
	AnchorState *string `json:"anchor_state,omitempty"`

	// StackOverride is the explicit supplement list for this report, if any.
	StackOverride *[]stack.Period `json:"stack_override,omitempty"`
}
