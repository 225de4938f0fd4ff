// Package ops implements labtrail's operations: report and supplement-period
// CRUD against the database, and the resolution queries that feed the CLI,
// MCP, and web surfaces. Each operation takes an Input struct and returns an
// Output struct so the surfaces stay thin.
package ops

import (
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/resolve"
	"github.com/labtrail/labtrail/internal/stack"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// cleanOptionalString trims an optional string, mapping whitespace-only
// values to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validateDay checks that value is a YYYY-MM-DD calendar date.
func validateDay(field, value string) error {
	if _, ok := stack.ParseDay(value); !ok {
		return errors.NewInvalidDate(field, value)
	}
	return nil
}

// validateSpan checks start ≤ end when an end date is present.
func validateSpan(startDate string, endDate *string) error {
	if err := validateDay("start_date", startDate); err != nil {
		return err
	}
	if endDate == nil {
		return nil
	}
	if err := validateDay("end_date", *endDate); err != nil {
		return err
	}
	start, _ := stack.ParseDay(startDate)
	end, _ := stack.ParseDay(*endDate)
	if end.Before(start) {
		return errors.NewInvalidRequest("end_date must not be before start_date")
	}
	return nil
}

// loadResolutionInputs fetches the two inputs every resolution query needs.
func loadResolutionInputs(database *sql.DB) ([]report.Report, []stack.Period, error) {
	reports, err := db.AllReports(database, false)
	if err != nil {
		return nil, nil, err
	}
	timeline, err := db.Timeline(database)
	if err != nil {
		return nil, nil, err
	}
	return reports, timeline, nil
}

// resolveContexts resolves every stored report in one pass.
func resolveContexts(database *sql.DB) (map[string]resolve.Context, []report.Report, error) {
	reports, timeline, err := loadResolutionInputs(database)
	if err != nil {
		return nil, nil, err
	}
	return resolve.All(reports, timeline), reports, nil
}
