package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/stack"
)

// StackStopInput contains parameters for the StackStop operation.
type StackStopInput struct {
	ID      string  // required
	EndDate *string // optional, YYYY-MM-DD; defaults to today
}

// StackStopOutput contains the result of the StackStop operation.
type StackStopOutput struct {
	ID      string `json:"id"`
	EndDate string `json:"end_date"`
}

// StackStop closes an open supplement period. Stopping an already-closed
// period is a conflict; use StackUpdate to move an end date.
func StackStop(database *sql.DB, cfg *config.Config, input StackStopInput) (*StackStopOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	rec, err := db.GetPeriodByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}
	if !rec.Open() {
		return nil, errors.NewConflict("period " + rec.ID + " is already closed")
	}

	endDate := stack.Today()
	if input.EndDate != nil {
		endDate = *input.EndDate
	}
	if err := validateSpan(rec.StartDate, &endDate); err != nil {
		return nil, err
	}

	rec.EndDate = &endDate
	if err := db.UpdatePeriodByID(database, rec); err != nil {
		return nil, err
	}

	return &StackStopOutput{ID: rec.ID, EndDate: endDate}, nil
}
