package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string // required
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Delete soft-deletes a report. Deleted reports no longer participate in
// resolution and are removed for good by Purge.
func Delete(database *sql.DB, cfg *config.Config, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.SoftDeleteReport(database, input.ID); err != nil {
		return nil, err
	}

	return &DeleteOutput{ID: input.ID, Deleted: true}, nil
}
