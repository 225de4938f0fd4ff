package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/stack"
)

// StackListInput contains parameters for the StackList operation.
type StackListInput struct {
	IncludeDeleted bool
}

// StackListOutput contains the full supplement timeline in canonical order.
type StackListOutput struct {
	Periods []db.PeriodRecord `json:"periods"`
	Total   int               `json:"total"`
}

// StackList returns every supplement period, open and closed.
func StackList(database *sql.DB, cfg *config.Config, input StackListInput) (*StackListOutput, error) {
	periods, err := db.ListPeriods(database, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	return &StackListOutput{Periods: periods, Total: len(periods)}, nil
}

// StackActiveInput contains parameters for the StackActive operation.
type StackActiveInput struct {
	Date string // optional, YYYY-MM-DD; defaults to today
}

// StackActiveOutput contains the periods active on a given date.
type StackActiveOutput struct {
	Date        string         `json:"date"`
	Periods     []stack.Period `json:"periods"`
	DisplayText string         `json:"display_text"`
}

// StackActive returns the supplements active on a calendar date, inclusive of
// both period boundaries.
func StackActive(database *sql.DB, cfg *config.Config, input StackActiveInput) (*StackActiveOutput, error) {
	date := input.Date
	if date == "" {
		date = stack.Today()
	}
	if err := validateDay("date", date); err != nil {
		return nil, err
	}

	timeline, err := db.Timeline(database)
	if err != nil {
		return nil, err
	}
	active := stack.ActiveOn(timeline, date)

	return &StackActiveOutput{
		Date:        date,
		Periods:     active,
		DisplayText: stack.DisplayText(active),
	}, nil
}
