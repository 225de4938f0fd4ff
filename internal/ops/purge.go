package ops

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	PurgedReports int    `json:"purged_reports"`
	PurgedPeriods int    `json:"purged_periods"`
	Message       string `json:"message"`
}

// Purge permanently deletes soft-deleted reports and supplement periods.
func Purge(database *sql.DB, cfg *config.Config, input PurgeInput) (*PurgeOutput, error) {
	var cutoff *int64
	if input.OlderThanDays != nil {
		if *input.OlderThanDays < 0 {
			return nil, errors.NewInvalidRequest("older_than_days must not be negative")
		}
		c := time.Now().Unix() - int64(*input.OlderThanDays)*86400
		cutoff = &c
	}

	reports, err := db.PurgeReports(database, cutoff)
	if err != nil {
		return nil, err
	}
	periods, err := db.PurgePeriods(database, cutoff)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		PurgedReports: reports,
		PurgedPeriods: periods,
		Message:       formatPurgeMessage(reports, periods, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(reports, periods int, olderThanDays *int) string {
	if reports == 0 && periods == 0 {
		return "No deleted records to purge"
	}

	msg := fmt.Sprintf("Permanently deleted %d report(s) and %d period(s)", reports, periods)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}
	return msg
}
