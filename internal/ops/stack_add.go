package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/stack"
)

// StackAddInput contains parameters for the StackAdd operation.
type StackAddInput struct {
	Name      string // required
	Dose      string // optional, e.g. "5000 IU"
	Frequency string // optional, e.g. "daily"; "unknown" suppresses display
	StartDate string // required, YYYY-MM-DD
	EndDate   *string
}

// StackAddOutput contains the result of the StackAdd operation.
type StackAddOutput struct {
	ID     string       `json:"id"`
	Period stack.Period `json:"period"`
}

// StackAdd opens a new supplement period on the timeline. Omitting end_date
// leaves the period open, meaning still being taken.
func StackAdd(database *sql.DB, cfg *config.Config, input StackAddInput) (*StackAddOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if input.StartDate == "" {
		return nil, errors.NewInvalidRequest("start_date is required")
	}
	if err := validateSpan(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	rec := &db.PeriodRecord{
		Period: stack.Period{
			ID:        id,
			Name:      name,
			Dose:      strings.TrimSpace(input.Dose),
			Frequency: strings.TrimSpace(input.Frequency),
			StartDate: input.StartDate,
			EndDate:   input.EndDate,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.InsertPeriod(database, rec); err != nil {
		return nil, err
	}

	return &StackAddOutput{ID: id, Period: rec.Period}, nil
}
