package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	TestDate      string  // required, YYYY-MM-DD
	Lab           *string // optional
	Notes         *string // optional, markdown
	AnchorState   *string // optional: inherit, anchor, none, unknown
	StackOverride *[]stack.Period
}

// StoreOutput contains the result of the Store operation.
type StoreOutput struct {
	ID       string `json:"id"`
	TestDate string `json:"test_date"`
}

// Store creates a report, optionally annotated at creation time.
func Store(database *sql.DB, cfg *config.Config, input StoreInput) (*StoreOutput, error) {
	if input.TestDate == "" {
		return nil, errors.NewInvalidRequest("test_date is required")
	}
	if err := validateDay("test_date", input.TestDate); err != nil {
		return nil, err
	}

	input.Lab = cleanOptionalString(input.Lab)
	if err := validateNotes(cfg, input.Notes); err != nil {
		return nil, err
	}

	anchorState, err := validateAnchorState(input.AnchorState)
	if err != nil {
		return nil, err
	}
	if err := validateOverride(input.StackOverride); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	r := &report.Report{
		ID:       id,
		TestDate: input.TestDate,
		Lab:      input.Lab,
		Notes:    input.Notes,
		Annotations: report.Annotations{
			AnchorState:   anchorState,
			StackOverride: input.StackOverride,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.InsertReport(database, r); err != nil {
		return nil, err
	}

	return &StoreOutput{ID: id, TestDate: input.TestDate}, nil
}

// validateNotes enforces the configured notes size limit.
func validateNotes(cfg *config.Config, notes *string) error {
	if notes == nil {
		return nil
	}
	actual := len([]rune(*notes))
	if actual > cfg.NotesMaxChars {
		return errors.NewNotesTooLarge(cfg.NotesMaxChars, actual)
	}
	return nil
}

// validateAnchorState normalizes and validates an optional anchor state.
func validateAnchorState(s *string) (*string, error) {
	s = cleanOptionalString(s)
	if s == nil {
		return nil, nil
	}
	if !report.ValidAnchorState(*s) {
		return nil, errors.NewInvalidRequest("anchor_state must be one of: inherit, anchor, none, unknown")
	}
	canonical := strings.ToLower(*s)
	return &canonical, nil
}

// validateOverride checks each period recorded in a stack override.
func validateOverride(override *[]stack.Period) error {
	if override == nil {
		return nil
	}
	for _, p := range *override {
		if p.Name == "" {
			return errors.NewInvalidRequest("override periods must have a name")
		}
		if p.StartDate != "" {
			if err := validateSpan(p.StartDate, p.EndDate); err != nil {
				return err
			}
		}
	}
	return nil
}
