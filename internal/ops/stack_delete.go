package ops

import (
	"database/sql"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
)

// StackDeleteInput contains parameters for the StackDelete operation.
type StackDeleteInput struct {
	ID string // required
}

// StackDeleteOutput contains the result of the StackDelete operation.
type StackDeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// StackDelete soft-deletes a supplement period. The period drops out of the
// timeline immediately, which retroactively changes resolved contexts that
// depended on it.
func StackDelete(database *sql.DB, cfg *config.Config, input StackDeleteInput) (*StackDeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.SoftDeletePeriod(database, input.ID); err != nil {
		return nil, err
	}

	return &StackDeleteOutput{ID: input.ID, Deleted: true}, nil
}
