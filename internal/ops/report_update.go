package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
)

// UpdateInput contains parameters for the Update operation. Nil pointer
// fields are left unchanged; the Clear flags reset optional fields to null.
type UpdateInput struct {
	ID         string  // required
	TestDate   *string // optional, YYYY-MM-DD
	Lab        *string
	Notes      *string
	ClearLab   bool
	ClearNotes bool
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string `json:"id"`
	TestDate  string `json:"test_date"`
	UpdatedAt int64  `json:"updated_at"`
}

// Update edits a report's own fields. Annotations are edited via Annotate.
func Update(database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Lab != nil && input.ClearLab {
		return nil, errors.NewInvalidRequest("lab and clear_lab are mutually exclusive")
	}
	if input.Notes != nil && input.ClearNotes {
		return nil, errors.NewInvalidRequest("notes and clear_notes are mutually exclusive")
	}

	r, err := db.GetReportByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}

	if input.TestDate != nil {
		if err := validateDay("test_date", *input.TestDate); err != nil {
			return nil, err
		}
		r.TestDate = *input.TestDate
	}
	if input.ClearLab {
		r.Lab = nil
	} else if input.Lab != nil {
		r.Lab = cleanOptionalString(input.Lab)
	}
	if input.ClearNotes {
		r.Notes = nil
	} else if input.Notes != nil {
		if err := validateNotes(cfg, input.Notes); err != nil {
			return nil, err
		}
		r.Notes = input.Notes
	}

	if err := db.UpdateReportByID(database, r); err != nil {
		return nil, err
	}

	return &UpdateOutput{ID: r.ID, TestDate: r.TestDate, UpdatedAt: r.UpdatedAt}, nil
}
