package ops

import (
	"database/sql"
	"strings"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
)

// StackUpdateInput contains parameters for the StackUpdate operation. Nil
// pointer fields are left unchanged; ClearEndDate reopens a closed period.
type StackUpdateInput struct {
	ID           string // required
	Name         *string
	Dose         *string
	Frequency    *string
	StartDate    *string
	EndDate      *string
	ClearEndDate bool
}

// StackUpdateOutput contains the result of the StackUpdate operation.
type StackUpdateOutput struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updated_at"`
}

// StackUpdate edits a supplement period in place. Edits apply retroactively:
// a changed dose shows up in every report context that resolves through the
// timeline, and a changed span moves the period in and out of active sets.
func StackUpdate(database *sql.DB, cfg *config.Config, input StackUpdateInput) (*StackUpdateOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.EndDate != nil && input.ClearEndDate {
		return nil, errors.NewInvalidRequest("end_date and clear_end_date are mutually exclusive")
	}

	rec, err := db.GetPeriodByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.NewInvalidRequest("name must not be empty")
		}
		rec.Name = name
	}
	if input.Dose != nil {
		rec.Dose = strings.TrimSpace(*input.Dose)
	}
	if input.Frequency != nil {
		rec.Frequency = strings.TrimSpace(*input.Frequency)
	}
	if input.StartDate != nil {
		rec.StartDate = *input.StartDate
	}
	if input.ClearEndDate {
		rec.EndDate = nil
	} else if input.EndDate != nil {
		rec.EndDate = input.EndDate
	}

	if err := validateSpan(rec.StartDate, rec.EndDate); err != nil {
		return nil, err
	}

	if err := db.UpdatePeriodByID(database, rec); err != nil {
		return nil, err
	}

	return &StackUpdateOutput{ID: rec.ID, UpdatedAt: rec.UpdatedAt}, nil
}
